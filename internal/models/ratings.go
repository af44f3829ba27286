package models

// OPRResult holds the least-squares contribution estimates for one team
// at one event.
type OPRResult struct {
	TeamNumber int `json:"team_number"`

	// Contribution estimates
	OPR  float64 `json:"opr"`
	DPR  float64 `json:"dpr"`
	CCWM float64 `json:"ccwm"`

	// Per-phase OPR components
	AutoOPR    float64 `json:"auto_opr"`
	TeleopOPR  float64 `json:"teleop_opr"`
	EndgameOPR float64 `json:"endgame_opr"`

	MatchesPlayed int `json:"matches_played"`
}

// Trend classifications for EPA.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// EPAResult is a team's sequential expected-points-added rating.
// EPA is maintained as the sum of the three phase components.
type EPAResult struct {
	TeamNumber int `json:"team_number"`

	EPA        float64 `json:"epa"`
	AutoEPA    float64 `json:"auto_epa"`
	TeleopEPA  float64 `json:"teleop_epa"`
	EndgameEPA float64 `json:"endgame_epa"`

	MatchCount int    `json:"match_count"`
	Trend      string `json:"trend"`
}

// TeamOPRRank is one row of an event's OPR table.
type TeamOPRRank struct {
	Rank int `json:"rank"`
	OPRResult
}

// TeamEPARank is one row of an event's EPA table.
type TeamEPARank struct {
	Rank int `json:"rank"`
	EPAResult
}

// MatchPrediction is the outcome estimate for a hypothetical 2v2 match.
type MatchPrediction struct {
	RedScore           float64 `json:"red_score"`
	BlueScore          float64 `json:"blue_score"`
	RedWinProbability  float64 `json:"red_win_probability"`
	BlueWinProbability float64 `json:"blue_win_probability"`
	Confidence         string  `json:"confidence"` // high, medium, tossup
}
