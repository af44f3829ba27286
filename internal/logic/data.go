package logic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/analytics"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

type dataService struct {
	ftc    FTCClient
	season int
	epaCfg analytics.EPAConfig
	log    *zap.SugaredLogger
}

func NewDataService(ftc FTCClient, season int, epaCfg analytics.EPAConfig, log *zap.SugaredLogger) DataService {
	return &dataService{ftc: ftc, season: season, epaCfg: epaCfg, log: log}
}

func (s *dataService) GetEvents(ctx context.Context) ([]ftcapi.Event, error) {
	return s.ftc.Events(ctx, s.season)
}

func (s *dataService) GetEventTeams(ctx context.Context, eventCode string) ([]ftcapi.Team, error) {
	return s.ftc.EventTeams(ctx, s.season, normalizeEventCode(eventCode))
}

func (s *dataService) GetTeam(ctx context.Context, teamNumber int) (*ftcapi.Team, error) {
	return s.ftc.Team(ctx, s.season, teamNumber)
}

func (s *dataService) GetSchedule(ctx context.Context, eventCode, level string) ([]ftcapi.ScheduledMatch, error) {
	return s.ftc.Schedule(ctx, s.season, normalizeEventCode(eventCode), normalizeLevel(level))
}

func (s *dataService) GetRawMatches(ctx context.Context, eventCode string) ([]ftcapi.MatchResult, error) {
	return s.ftc.Matches(ctx, s.season, normalizeEventCode(eventCode))
}

func (s *dataService) GetScores(ctx context.Context, eventCode, level string) ([]ftcapi.MatchScores, error) {
	return s.ftc.Scores(ctx, s.season, normalizeEventCode(eventCode), normalizeLevel(level))
}

func (s *dataService) GetEventRankings(ctx context.Context, eventCode string) ([]ftcapi.EventRanking, error) {
	return s.ftc.Rankings(ctx, s.season, normalizeEventCode(eventCode))
}

// GetMatches merges the played-match feed with both detailed score
// feeds into the internal match model. The three fetches run
// concurrently.
func (s *dataService) GetMatches(ctx context.Context, eventCode string) ([]models.Match, error) {
	eventCode = normalizeEventCode(eventCode)

	var results []ftcapi.MatchResult
	var qual, playoff []ftcapi.MatchScores

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if results, err = s.ftc.Matches(gctx, s.season, eventCode); err != nil {
			return fmt.Errorf("matches %s: %w", eventCode, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if qual, err = s.ftc.Scores(gctx, s.season, eventCode, models.LevelQual); err != nil {
			return fmt.Errorf("qual scores %s: %w", eventCode, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if playoff, err = s.ftc.Scores(gctx, s.season, eventCode, models.LevelPlayoff); err != nil {
			return fmt.Errorf("playoff scores %s: %w", eventCode, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeMatches(s.season, eventCode, results, qual, playoff), nil
}

// GetEventOPR computes the OPR table for one event.
func (s *dataService) GetEventOPR(ctx context.Context, eventCode string) ([]models.TeamOPRRank, error) {
	matches, err := s.GetMatches(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	ranks := analytics.RankByOPR(analytics.CalculateOPR(matches))
	for i := range ranks {
		r := &ranks[i]
		r.OPR, r.DPR, r.CCWM = round2(r.OPR), round2(r.DPR), round2(r.CCWM)
		r.AutoOPR, r.TeleopOPR, r.EndgameOPR = round2(r.AutoOPR), round2(r.TeleopOPR), round2(r.EndgameOPR)
	}
	return ranks, nil
}

// GetEventEPA computes the EPA table for one event.
func (s *dataService) GetEventEPA(ctx context.Context, eventCode string) ([]models.TeamEPARank, error) {
	matches, err := s.GetMatches(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	ranks := analytics.RankByEPA(analytics.CalculateEPA(matches, s.epaCfg))
	for i := range ranks {
		r := &ranks[i]
		r.EPA, r.AutoEPA = round2(r.EPA), round2(r.AutoEPA)
		r.TeleopEPA, r.EndgameEPA = round2(r.TeleopEPA), round2(r.EndgameEPA)
	}
	return ranks, nil
}

// PredictEventMatch predicts a hypothetical 2v2 pairing from the
// event's current EPA ratings. Unknown teams contribute zero.
func (s *dataService) PredictEventMatch(ctx context.Context, eventCode string, req models.PredictMatchRequest) (*models.MatchPrediction, error) {
	matches, err := s.GetMatches(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	epa := analytics.CalculateEPA(matches, s.epaCfg)

	rating := func(team int) float64 {
		if r, ok := epa[team]; ok {
			return r.EPA
		}
		return 0
	}

	p := analytics.PredictMatch(
		[]float64{rating(req.Red1), rating(req.Red2)},
		[]float64{rating(req.Blue1), rating(req.Blue2)},
	)
	p.RedScore, p.BlueScore = round2(p.RedScore), round2(p.BlueScore)
	return &p, nil
}

// mergeMatches joins match results with the detailed score rows keyed
// by (level, match number). Rows without a score breakdown keep their
// final totals and are flagged accordingly.
func mergeMatches(season int, eventCode string, results []ftcapi.MatchResult, qual, playoff []ftcapi.MatchScores) []models.Match {
	type matchKey struct {
		level  string
		number int
	}
	scoreIndex := make(map[matchKey]*ftcapi.MatchScores, len(qual)+len(playoff))
	for i := range qual {
		scoreIndex[matchKey{models.LevelQual, qual[i].MatchNumber}] = &qual[i]
	}
	for i := range playoff {
		scoreIndex[matchKey{models.LevelPlayoff, playoff[i].MatchNumber}] = &playoff[i]
	}

	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		level := normalizeLevel(r.TournamentLevel)
		started := ftcapi.ParseTime(r.ActualStartTime)
		if started.IsZero() {
			started = ftcapi.ParseTime(r.PostResultTime)
		}
		m := models.Match{
			Season:          season,
			EventCode:       eventCode,
			TournamentLevel: level,
			MatchNumber:     r.MatchNumber,
			Description:     r.Description,
			StartTime:       started,
			Red1:            r.StationTeam("Red1"),
			Red2:            r.StationTeam("Red2"),
			Blue1:           r.StationTeam("Blue1"),
			Blue2:           r.StationTeam("Blue2"),
			Red:             models.PhaseScore{Total: r.ScoreRedFinal},
			Blue:            models.PhaseScore{Total: r.ScoreBlueFinal},
		}

		if sc := scoreIndex[matchKey{level, r.MatchNumber}]; sc != nil {
			red, redOK := sc.Alliance("Red")
			blue, blueOK := sc.Alliance("Blue")
			if redOK && blueOK {
				// Final totals from the result feed stay authoritative;
				// the score feed contributes the phase split.
				m.Red.Auto, m.Red.Teleop, m.Red.Endgame = red.AutoPoints, red.DriverControlledPoints, red.EndgamePoints
				m.Blue.Auto, m.Blue.Teleop, m.Blue.Endgame = blue.AutoPoints, blue.DriverControlledPoints, blue.EndgamePoints
				m.PhaseBreakdown = true
			}
		}

		matches = append(matches, m)
	}
	return matches
}

// normalizeLevel folds the feed's tournament level spellings
// (QUALIFICATION, SEMIFINAL, FINAL, ...) onto the two levels the API
// accepts as parameters.
func normalizeLevel(level string) string {
	if strings.HasPrefix(strings.ToLower(level), "qual") {
		return models.LevelQual
	}
	return models.LevelPlayoff
}

func normalizeEventCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
