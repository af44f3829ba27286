package models

type SubmitScoutingRequest struct {
	Season          int    `json:"season" validate:"required,min=2019"`
	EventCode       string `json:"event_code" validate:"required,alphanum,max=16"`
	TournamentLevel string `json:"tournament_level" validate:"omitempty,oneof=qual playoff"`
	MatchNumber     int    `json:"match_number" validate:"required,min=1"`
	TeamNumber      int    `json:"team_number" validate:"required,min=1"`
	ScoutingTeam    int    `json:"scouting_team" validate:"required,min=1"`
	Alliance        string `json:"alliance" validate:"required,oneof=red blue"`

	AutoPoints    int `json:"auto_points" validate:"min=0"`
	TeleopPoints  int `json:"teleop_points" validate:"min=0"`
	EndgamePoints int `json:"endgame_points" validate:"min=0"`

	Notes string `json:"notes" validate:"max=2000"`
}

type ScopedRankingsRequest struct {
	Scope     string `json:"scope"` // world, country or state
	Country   string `json:"country"`
	StateProv string `json:"state_prov"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

type PredictMatchRequest struct {
	Red1  int `json:"red1"`
	Red2  int `json:"red2"`
	Blue1 int `json:"blue1"`
	Blue2 int `json:"blue2"`
}

// RefreshSummary is returned by the manual rankings refresh trigger.
type RefreshSummary struct {
	Season      int    `json:"season"`
	EventsUsed  int    `json:"events_used"`
	TeamsRanked int    `json:"teams_ranked"`
	DurationMS  int64  `json:"duration_ms"`
	GeneratedAt string `json:"generated_at"`
}
