package analytics

import (
	"sort"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// EPAConfig tunes the sequential rating. Blend is the weight of the
// newest observation (higher = faster to move), TrendWindow is how many
// recent observations the trend compares against the rest, and
// TrendEpsilon is the dead band inside which the trend reads stable.
type EPAConfig struct {
	Blend        float64
	TrendWindow  int
	TrendEpsilon float64
}

func DefaultEPAConfig() EPAConfig {
	return EPAConfig{Blend: 0.3, TrendWindow: 3, TrendEpsilon: 1.0}
}

type epaState struct {
	auto, teleop, endgame float64
	count                 int
	history               []float64 // observed per-match total contributions
}

// CalculateEPA folds matches in chronological order into a per-team
// expected-points-added rating. Each alliance's phase scores are
// attributed evenly to its two teams, and ratings move by exponential
// blend so recent matches weigh more. Matches without a full roster or
// a phase breakdown are skipped.
func CalculateEPA(matches []models.Match, cfg EPAConfig) map[int]*models.EPAResult {
	if cfg.Blend <= 0 || cfg.Blend > 1 {
		cfg.Blend = DefaultEPAConfig().Blend
	}
	if cfg.TrendWindow < 1 {
		cfg.TrendWindow = DefaultEPAConfig().TrendWindow
	}

	ordered := sortChronological(matches)

	states := make(map[int]*epaState)
	update := func(team int, score models.PhaseScore) {
		if team <= 0 {
			return
		}
		s := states[team]
		if s == nil {
			s = &epaState{}
			states[team] = s
		}
		// Half the alliance output to each partner.
		auto := float64(score.Auto) / 2
		teleop := float64(score.Teleop) / 2
		endgame := float64(score.Endgame) / 2

		if s.count == 0 {
			s.auto, s.teleop, s.endgame = auto, teleop, endgame
		} else {
			s.auto = (1-cfg.Blend)*s.auto + cfg.Blend*auto
			s.teleop = (1-cfg.Blend)*s.teleop + cfg.Blend*teleop
			s.endgame = (1-cfg.Blend)*s.endgame + cfg.Blend*endgame
		}
		s.count++
		s.history = append(s.history, auto+teleop+endgame)
	}

	for _, m := range ordered {
		if !m.HasFullRoster() || !m.PhaseBreakdown {
			continue
		}
		update(m.Red1, m.Red)
		update(m.Red2, m.Red)
		update(m.Blue1, m.Blue)
		update(m.Blue2, m.Blue)
	}

	results := make(map[int]*models.EPAResult, len(states))
	for team, s := range states {
		results[team] = &models.EPAResult{
			TeamNumber: team,
			EPA:        s.auto + s.teleop + s.endgame,
			AutoEPA:    s.auto,
			TeleopEPA:  s.teleop,
			EndgameEPA: s.endgame,
			MatchCount: s.count,
			Trend:      classifyTrend(s.history, cfg.TrendWindow, cfg.TrendEpsilon),
		}
	}
	return results
}

// sortChronological orders matches by start time, falling back to
// (event, level, match number) so untimestamped feeds still get a
// deterministic total order.
func sortChronological(matches []models.Match) []models.Match {
	ordered := make([]models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if !a.StartTime.IsZero() && !b.StartTime.IsZero() && !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.EventCode != b.EventCode {
			return a.EventCode < b.EventCode
		}
		if a.TournamentLevel != b.TournamentLevel {
			return levelOrder(a.TournamentLevel) < levelOrder(b.TournamentLevel)
		}
		return a.MatchNumber < b.MatchNumber
	})
	return ordered
}

func levelOrder(level string) int {
	if level == models.LevelPlayoff {
		return 1
	}
	return 0
}

// classifyTrend compares the mean of the last window observations
// against the mean of everything before them. Too little history reads
// stable.
func classifyTrend(history []float64, window int, eps float64) string {
	if len(history) < window+1 {
		return models.TrendStable
	}
	recent := mean(history[len(history)-window:])
	prior := mean(history[:len(history)-window])
	switch {
	case recent-prior > eps:
		return models.TrendUp
	case prior-recent > eps:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// RankByEPA flattens EPA results into a table sorted by EPA descending,
// ranks 1..N. Ties break on team number for stable output.
func RankByEPA(results map[int]*models.EPAResult) []models.TeamEPARank {
	ranks := make([]models.TeamEPARank, 0, len(results))
	for _, r := range results {
		ranks = append(ranks, models.TeamEPARank{EPAResult: *r})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].EPA != ranks[j].EPA {
			return ranks[i].EPA > ranks[j].EPA
		}
		return ranks[i].TeamNumber < ranks[j].TeamNumber
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}
