package models

import "time"

// ScoutingEntry is one team's scouted performance in one match, recorded
// by a scouting team. Synthetic entries are derived for the alliance
// partner by deduction rather than observed directly.
type ScoutingEntry struct {
	ID              string `json:"id"`
	Season          int    `json:"season"`
	EventCode       string `json:"event_code"`
	TournamentLevel string `json:"tournament_level"`
	MatchNumber     int    `json:"match_number"`
	TeamNumber      int    `json:"team_number"`
	ScoutingTeam    int    `json:"scouting_team"`
	Alliance        string `json:"alliance"`

	AutoPoints    int `json:"auto_points"`
	TeleopPoints  int `json:"teleop_points"`
	EndgamePoints int `json:"endgame_points"`
	TotalPoints   int `json:"total_points"`

	// TotalOnly marks entries whose phase split is unknown (total-only
	// deduction); Synthetic marks deduced partner entries.
	TotalOnly   bool   `json:"total_only"`
	Synthetic   bool   `json:"synthetic"`
	DerivedFrom string `json:"derived_from,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Deduction outcome statuses. Unresolved and duplicate are ordinary
// outcomes, not errors; unresolved attempts may be retried later.
const (
	DeductionCreated    = "created"
	DeductionDuplicate  = "duplicate"
	DeductionUnresolved = "unresolved"
)

// DeductionResult reports what one alliance-deduction attempt did.
type DeductionResult struct {
	EntryID        string `json:"entry_id"`
	Status         string `json:"status"`
	PartnerTeam    int    `json:"partner_team,omitempty"`
	PartnerEntryID string `json:"partner_entry_id,omitempty"`
	TotalOnly      bool   `json:"total_only,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Resolved reports whether the attempt ended with a partner entry in
// place (newly created or already present).
func (r *DeductionResult) Resolved() bool {
	return r.Status == DeductionCreated || r.Status == DeductionDuplicate
}
