package ftcapi

import (
	"strings"
	"time"
)

// Event is one row of the season event list.
type Event struct {
	Code         string `json:"code"`
	DivisionCode string `json:"divisionCode"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	TypeName     string `json:"typeName"`
	RegionCode   string `json:"regionCode"`
	LeagueCode   string `json:"leagueCode"`
	DistrictCode string `json:"districtCode"`
	Venue        string `json:"venue"`
	Address      string `json:"address"`
	City         string `json:"city"`
	StateProv    string `json:"stateprov"`
	Country      string `json:"country"`
	Website      string `json:"website"`
	Timezone     string `json:"timezone"`
	DateStart    string `json:"dateStart"`
	DateEnd      string `json:"dateEnd"`
	Remote       bool   `json:"remote"`
	Hybrid       bool   `json:"hybrid"`
	Published    bool   `json:"published"`
}

// Started reports whether the event's start date is at or before now.
// Events with unparseable dates are treated as not started.
func (e *Event) Started(now time.Time) bool {
	t := ParseTime(e.DateStart)
	return !t.IsZero() && !t.After(now)
}

// Team is one row of a team listing or roster.
type Team struct {
	TeamNumber   int    `json:"teamNumber"`
	NameFull     string `json:"nameFull"`
	NameShort    string `json:"nameShort"`
	SchoolName   string `json:"schoolName"`
	City         string `json:"city"`
	StateProv    string `json:"stateProv"`
	Country      string `json:"country"`
	Website      string `json:"website"`
	RookieYear   int    `json:"rookieYear"`
	RobotName    string `json:"robotName"`
	DistrictCode string `json:"districtCode"`
	HomeCMP      string `json:"homeCMP"`
}

// ScheduledMatch is one row of the match schedule feed.
type ScheduledMatch struct {
	Description     string          `json:"description"`
	Field           string          `json:"field"`
	TournamentLevel string          `json:"tournamentLevel"`
	StartTime       string          `json:"startTime"`
	Series          int             `json:"series"`
	MatchNumber     int             `json:"matchNumber"`
	Teams           []ScheduledTeam `json:"teams"`
}

type ScheduledTeam struct {
	TeamNumber int    `json:"teamNumber"`
	Station    string `json:"station"` // Red1, Red2, Blue1, Blue2
	Surrogate  bool   `json:"surrogate"`
	NoShow     bool   `json:"noShow"`
}

// MatchResult is one row of the played-match feed. Only final and auto
// totals are published here; the phase breakdown lives in the detailed
// score feed.
type MatchResult struct {
	ActualStartTime string      `json:"actualStartTime"`
	PostResultTime  string      `json:"postResultTime"`
	Description     string      `json:"description"`
	TournamentLevel string      `json:"tournamentLevel"`
	Series          int         `json:"series"`
	MatchNumber     int         `json:"matchNumber"`
	ScoreRedFinal   int         `json:"scoreRedFinal"`
	ScoreRedFoul    int         `json:"scoreRedFoul"`
	ScoreRedAuto    int         `json:"scoreRedAuto"`
	ScoreBlueFinal  int         `json:"scoreBlueFinal"`
	ScoreBlueFoul   int         `json:"scoreBlueFoul"`
	ScoreBlueAuto   int         `json:"scoreBlueAuto"`
	Teams           []MatchTeam `json:"teams"`
}

type MatchTeam struct {
	TeamNumber int    `json:"teamNumber"`
	Station    string `json:"station"`
	DQ         bool   `json:"dq"`
	OnField    bool   `json:"onField"`
}

// StationTeam returns the team number at a station ("Red1", "Blue2", ...).
func (m *MatchResult) StationTeam(station string) int {
	for _, t := range m.Teams {
		if strings.EqualFold(t.Station, station) {
			return t.TeamNumber
		}
	}
	return 0
}

// MatchScores is one row of the detailed score feed.
type MatchScores struct {
	MatchLevel  string          `json:"matchLevel"`
	MatchSeries int             `json:"matchSeries"`
	MatchNumber int             `json:"matchNumber"`
	Alliances   []AllianceScore `json:"alliances"`
}

// Alliance returns the score block for "Red" or "Blue".
func (s *MatchScores) Alliance(color string) (AllianceScore, bool) {
	for _, a := range s.Alliances {
		if strings.EqualFold(a.Alliance, color) {
			return a, true
		}
	}
	return AllianceScore{}, false
}

// AllianceScore carries the season-independent phase totals. Season
// payloads rename and re-type fields (dcPoints vs teleopPoints,
// endGamePoints vs endgamePoints, quoted numbers from some scoring
// systems), so decoding goes through the flexible path in flexjson.go.
type AllianceScore struct {
	Alliance               string `json:"alliance"`
	AutoPoints             int    `json:"autoPoints"`
	DriverControlledPoints int    `json:"dcPoints"`
	EndgamePoints          int    `json:"endGamePoints"`
	PenaltyPointsCommitted int    `json:"penaltyPointsCommitted"`
	PreFoulTotal           int    `json:"preFoulTotal"`
	TotalPoints            int    `json:"totalPoints"`
}

// EventRanking is one row of the official event ranking feed.
type EventRanking struct {
	Rank           int     `json:"rank"`
	TeamNumber     int     `json:"teamNumber"`
	TeamName       string  `json:"teamName"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Ties           int     `json:"ties"`
	QualAverage    float64 `json:"qualAverage"`
	DQ             int     `json:"dq"`
	MatchesPlayed  int     `json:"matchesPlayed"`
	MatchesCounted int     `json:"matchesCounted"`
	SortOrder1     float64 `json:"sortOrder1"`
	SortOrder2     float64 `json:"sortOrder2"`
	SortOrder3     float64 `json:"sortOrder3"`
	SortOrder4     float64 `json:"sortOrder4"`
}

// Response envelopes.
type eventsEnvelope struct {
	Events     []Event `json:"events"`
	EventCount int     `json:"eventCount"`
}

type teamsEnvelope struct {
	Teams          []Team `json:"teams"`
	TeamCountTotal int    `json:"teamCountTotal"`
	TeamCountPage  int    `json:"teamCountPage"`
	PageCurrent    int    `json:"pageCurrent"`
	PageTotal      int    `json:"pageTotal"`
}

type scheduleEnvelope struct {
	Schedule []ScheduledMatch `json:"schedule"`
}

type matchesEnvelope struct {
	Matches []MatchResult `json:"matches"`
}

type scoresEnvelope struct {
	MatchScores []MatchScores `json:"matchScores"`
}

type rankingsEnvelope struct {
	Rankings []EventRanking `json:"rankings"`
}

// ParseTime parses the timestamp formats the FTC API emits: RFC3339
// with offset, or a bare local timestamp with no zone. Returns the zero
// time when the value is empty or unparseable.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
