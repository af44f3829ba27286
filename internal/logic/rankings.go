package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/analytics"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

const (
	snapshotKeyPrefix = "rankings/snapshot/"

	defaultScopeLimit = 50
	maxScopeLimit     = 500
)

// Event type/name substrings excluded from season aggregation. These
// are exhibition formats whose scores would distort the ratings.
var excludedEventKeywords = []string{
	"off-season", "offseason", "scrimmage", "workshop", "practice", "demo",
}

type rankingsService struct {
	data        DataService
	store       Store
	snaps       SnapshotStore
	season      int
	epaCfg      analytics.EPAConfig
	concurrency int
	log         *zap.SugaredLogger
	now         func() time.Time

	refreshing atomic.Bool
}

func NewRankingsService(data DataService, store Store, snaps SnapshotStore, season int, epaCfg analytics.EPAConfig, concurrency int, log *zap.SugaredLogger) RankingsService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &rankingsService{
		data:        data,
		store:       store,
		snaps:       snaps,
		season:      season,
		epaCfg:      epaCfg,
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

func (s *rankingsService) snapshotKey() string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, s.season)
}

// Refresh runs one aggregation pass over every eligible played event
// and atomically replaces the season snapshot. Only one pass runs at a
// time; concurrent callers get ErrRefreshRunning.
func (s *rankingsService) Refresh(ctx context.Context) (*models.RankingsSnapshot, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return nil, ErrRefreshRunning
	}
	defer s.refreshing.Store(false)

	start := s.now()

	events, err := s.data.GetEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list season events: %w", err)
	}
	eligible := filterCompetitiveEvents(events, start)
	s.log.Infow("rankings refresh started",
		"season", s.season, "events_total", len(events), "events_eligible", len(eligible))

	type eventData struct {
		code    string
		matches []models.Match
		teams   []ftcapi.Team
	}
	fetched := make([]eventData, len(eligible))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ev := range eligible {
		i, ev := i, ev
		g.Go(func() error {
			matches, err := s.data.GetMatches(gctx, ev.Code)
			if err != nil {
				failed.Add(1)
				s.log.Warnw("skipping event: match fetch failed", "event", ev.Code, "error", err)
				return nil
			}
			teams, err := s.data.GetEventTeams(gctx, ev.Code)
			if err != nil {
				failed.Add(1)
				s.log.Warnw("skipping event: roster fetch failed", "event", ev.Code, "error", err)
				return nil
			}
			fetched[i] = eventData{code: ev.Code, matches: matches, teams: teams}
			return nil
		})
	}
	// Workers degrade per event and never return errors, but the group
	// still aborts on context cancellation.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		allMatches  []models.Match
		perEventOPR = make(map[int][]float64)
		locations   = make(map[int]models.TeamLocation)
		eventsUsed  int
	)
	for _, ed := range fetched {
		if ed.code == "" {
			continue
		}
		eventsUsed++

		// Persistence is best effort; the in-memory aggregate is the
		// product of this pass.
		if err := s.store.ArchiveMatches(ctx, ed.matches); err != nil {
			s.log.Warnw("match archive failed", "event", ed.code, "error", err)
		}
		locs := make([]models.TeamLocation, 0, len(ed.teams))
		for _, t := range ed.teams {
			loc := models.TeamLocation{
				TeamNumber: t.TeamNumber,
				NameShort:  t.NameShort,
				Country:    t.Country,
				StateProv:  t.StateProv,
				City:       t.City,
			}
			locs = append(locs, loc)
			locations[t.TeamNumber] = loc
		}
		if err := s.store.UpsertTeamLocations(ctx, locs); err != nil {
			s.log.Warnw("team location upsert failed", "event", ed.code, "error", err)
		}

		allMatches = append(allMatches, ed.matches...)
		for team, r := range analytics.CalculateOPR(ed.matches) {
			perEventOPR[team] = append(perEventOPR[team], r.OPR)
		}
	}

	epa := analytics.CalculateEPA(allMatches, s.epaCfg)

	teams := make([]models.RankedTeam, 0, len(epa))
	for team, r := range epa {
		row := models.RankedTeam{
			TeamNumber:    team,
			EPA:           round2(r.EPA),
			AutoEPA:       round2(r.AutoEPA),
			TeleopEPA:     round2(r.TeleopEPA),
			EndgameEPA:    round2(r.EndgameEPA),
			Trend:         r.Trend,
			AvgOPR:        round2(average(perEventOPR[team])),
			EventsPlayed:  len(perEventOPR[team]),
			MatchesPlayed: r.MatchCount,
		}
		if loc, ok := locations[team]; ok {
			row.TeamName = loc.NameShort
			row.Country = loc.Country
			row.StateProv = loc.StateProv
			row.City = loc.City
		}
		teams = append(teams, row)
	}
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].EPA != teams[j].EPA {
			return teams[i].EPA > teams[j].EPA
		}
		return teams[i].TeamNumber < teams[j].TeamNumber
	})
	for i := range teams {
		teams[i].Rank = i + 1
	}

	snap := &models.RankingsSnapshot{
		Season:      s.season,
		GeneratedAt: start.UTC(),
		EventsUsed:  eventsUsed,
		Teams:       teams,
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	// No expiry: the snapshot is replaced by the next pass and stays
	// served if one fails.
	if err := s.snaps.Set(ctx, s.snapshotKey(), raw, 0); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	s.log.Infow("rankings refresh complete",
		"season", s.season,
		"teams_ranked", len(teams),
		"events_used", eventsUsed,
		"events_failed", failed.Load(),
		"duration", time.Since(start))
	return snap, nil
}

// TeamRankings returns one team's position at world, country and state
// scope from the live snapshot.
func (s *rankingsService) TeamRankings(ctx context.Context, teamNumber int) (*models.TeamRankDetail, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var team *models.RankedTeam
	for i := range snap.Teams {
		if snap.Teams[i].TeamNumber == teamNumber {
			team = &snap.Teams[i]
			break
		}
	}
	if team == nil {
		return nil, ErrTeamNotRanked
	}

	detail := &models.TeamRankDetail{
		Team:        *team,
		WorldRank:   team.Rank,
		WorldTotal:  len(snap.Teams),
		GeneratedAt: snap.GeneratedAt,
	}
	if team.Country != "" {
		detail.CountryRank, detail.CountryTotal = scopedPosition(snap.Teams, teamNumber, func(t *models.RankedTeam) bool {
			return strings.EqualFold(t.Country, team.Country)
		})
		if team.StateProv != "" {
			detail.StateRank, detail.StateTotal = scopedPosition(snap.Teams, teamNumber, func(t *models.RankedTeam) bool {
				return strings.EqualFold(t.Country, team.Country) && strings.EqualFold(t.StateProv, team.StateProv)
			})
		}
	}
	return detail, nil
}

// ScopedRankings returns one page of the snapshot filtered to a scope,
// renumbered 1..N within it.
func (s *rankingsService) ScopedRankings(ctx context.Context, req models.ScopedRankingsRequest) (*models.ScopedRankings, error) {
	scope := strings.ToLower(strings.TrimSpace(req.Scope))
	if scope == "" {
		scope = "world"
	}

	var match func(*models.RankedTeam) bool
	switch scope {
	case "world":
		match = func(*models.RankedTeam) bool { return true }
	case "country":
		if req.Country == "" {
			return nil, fmt.Errorf("%w: country scope requires a country", ErrInvalidScope)
		}
		match = func(t *models.RankedTeam) bool {
			return strings.EqualFold(t.Country, req.Country)
		}
	case "state":
		if req.Country == "" || req.StateProv == "" {
			return nil, fmt.Errorf("%w: state scope requires a country and state", ErrInvalidScope)
		}
		match = func(t *models.RankedTeam) bool {
			return strings.EqualFold(t.Country, req.Country) && strings.EqualFold(t.StateProv, req.StateProv)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, req.Scope)
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Snapshot order is EPA-descending, so the filtered slice keeps it.
	var filtered []models.RankedTeam
	for i := range snap.Teams {
		if match(&snap.Teams[i]) {
			filtered = append(filtered, snap.Teams[i])
		}
	}
	for i := range filtered {
		filtered[i].Rank = i + 1
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultScopeLimit
	}
	if limit > maxScopeLimit {
		limit = maxScopeLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	page := []models.RankedTeam{}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[offset:end]
	}

	return &models.ScopedRankings{
		Scope:       scope,
		Country:     req.Country,
		StateProv:   req.StateProv,
		Total:       len(filtered),
		Limit:       limit,
		Offset:      offset,
		GeneratedAt: snap.GeneratedAt,
		Teams:       page,
	}, nil
}

func (s *rankingsService) loadSnapshot(ctx context.Context) (*models.RankingsSnapshot, error) {
	raw, err := s.snaps.Get(ctx, s.snapshotKey())
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if raw == nil {
		return nil, ErrSnapshotNotReady
	}
	var snap models.RankingsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// filterCompetitiveEvents keeps events that have started and are not an
// exhibition format.
func filterCompetitiveEvents(events []ftcapi.Event, now time.Time) []ftcapi.Event {
	var eligible []ftcapi.Event
	for _, ev := range events {
		if !ev.Started(now) {
			continue
		}
		label := strings.ToLower(ev.TypeName + " " + ev.Type + " " + ev.Name)
		excluded := false
		for _, kw := range excludedEventKeywords {
			if strings.Contains(label, kw) {
				excluded = true
				break
			}
		}
		if !excluded {
			eligible = append(eligible, ev)
		}
	}
	return eligible
}

// scopedPosition returns a team's rank among the rows matching the
// filter and the size of that group. Rows must be in snapshot order.
func scopedPosition(teams []models.RankedTeam, teamNumber int, match func(*models.RankedTeam) bool) (rank, total int) {
	for i := range teams {
		if !match(&teams[i]) {
			continue
		}
		total++
		if teams[i].TeamNumber == teamNumber {
			rank = total
		}
	}
	return rank, total
}

func average(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
