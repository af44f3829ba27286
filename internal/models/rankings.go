package models

import "time"

// RankedTeam is one row of the season-wide rankings snapshot.
type RankedTeam struct {
	Rank       int    `json:"rank"`
	TeamNumber int    `json:"team_number"`
	TeamName   string `json:"team_name,omitempty"`

	// Location (from the most recent roster appearance)
	Country   string `json:"country,omitempty"`
	StateProv string `json:"state_prov,omitempty"`
	City      string `json:"city,omitempty"`

	// Ratings
	EPA        float64 `json:"epa"`
	AutoEPA    float64 `json:"auto_epa"`
	TeleopEPA  float64 `json:"teleop_epa"`
	EndgameEPA float64 `json:"endgame_epa"`
	Trend      string  `json:"trend"`
	AvgOPR     float64 `json:"avg_opr"`

	EventsPlayed  int `json:"events_played"`
	MatchesPlayed int `json:"matches_played"`
}

// RankingsSnapshot is the full season ranking table produced by one
// aggregation pass. It is replaced wholesale; readers never see a
// partially updated snapshot.
type RankingsSnapshot struct {
	Season      int          `json:"season"`
	GeneratedAt time.Time    `json:"generated_at"`
	EventsUsed  int          `json:"events_used"`
	Teams       []RankedTeam `json:"teams"`
}

// TeamRankDetail is a single team's position at every scope.
type TeamRankDetail struct {
	Team         RankedTeam `json:"team"`
	WorldRank    int        `json:"world_rank"`
	WorldTotal   int        `json:"world_total"`
	CountryRank  int        `json:"country_rank,omitempty"`
	CountryTotal int        `json:"country_total,omitempty"`
	StateRank    int        `json:"state_rank,omitempty"`
	StateTotal   int        `json:"state_total,omitempty"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// ScopedRankings is a filtered, renumbered page of the snapshot.
type ScopedRankings struct {
	Scope       string       `json:"scope"`
	Country     string       `json:"country,omitempty"`
	StateProv   string       `json:"state_prov,omitempty"`
	Total       int          `json:"total"`
	Limit       int          `json:"limit"`
	Offset      int          `json:"offset"`
	GeneratedAt time.Time    `json:"generated_at"`
	Teams       []RankedTeam `json:"teams"`
}

// TeamLocation is the persisted roster location for one team.
type TeamLocation struct {
	TeamNumber int       `json:"team_number"`
	NameShort  string    `json:"name_short,omitempty"`
	Country    string    `json:"country,omitempty"`
	StateProv  string    `json:"state_prov,omitempty"`
	City       string    `json:"city,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
