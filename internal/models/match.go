package models

import "time"

// Tournament levels and alliance colors as used by the FTC Events API.
const (
	LevelQual    = "qual"
	LevelPlayoff = "playoff"
	AllianceRed  = "red"
	AllianceBlue = "blue"
)

// PhaseScore is one alliance's score broken down by match phase.
// Total is authoritative; phase fields are zero when only the
// total is known (see Match.PhaseBreakdown).
type PhaseScore struct {
	Total   int `json:"total"`
	Auto    int `json:"auto"`
	Teleop  int `json:"teleop"`
	Endgame int `json:"endgame"`
}

// Match is a played match with both alliances resolved, merged from the
// match-results and detailed-score feeds.
type Match struct {
	Season          int       `json:"season"`
	EventCode       string    `json:"event_code"`
	TournamentLevel string    `json:"tournament_level"`
	MatchNumber     int       `json:"match_number"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`

	Red1  int `json:"red1"`
	Red2  int `json:"red2"`
	Blue1 int `json:"blue1"`
	Blue2 int `json:"blue2"`

	Red  PhaseScore `json:"red"`
	Blue PhaseScore `json:"blue"`

	// PhaseBreakdown is false when the detailed score feed was unavailable
	// and only final totals could be merged in.
	PhaseBreakdown bool `json:"phase_breakdown"`
}

// HasFullRoster reports whether both alliances have two known teams.
func (m *Match) HasFullRoster() bool {
	return m.Red1 > 0 && m.Red2 > 0 && m.Blue1 > 0 && m.Blue2 > 0
}

// AllianceOf returns which alliance the team played on.
func (m *Match) AllianceOf(team int) (string, bool) {
	switch team {
	case m.Red1, m.Red2:
		return AllianceRed, true
	case m.Blue1, m.Blue2:
		return AllianceBlue, true
	}
	return "", false
}

// PartnerOf returns the team's alliance partner.
func (m *Match) PartnerOf(team int) (int, bool) {
	switch team {
	case m.Red1:
		return m.Red2, m.Red2 > 0
	case m.Red2:
		return m.Red1, m.Red1 > 0
	case m.Blue1:
		return m.Blue2, m.Blue2 > 0
	case m.Blue2:
		return m.Blue1, m.Blue1 > 0
	}
	return 0, false
}

// AllianceScore returns the phase score for the named alliance.
func (m *Match) AllianceScore(alliance string) PhaseScore {
	if alliance == AllianceBlue {
		return m.Blue
	}
	return m.Red
}
