package logic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/store"
)

// MockFTCClient implements FTCClient for testing. Nil funcs return
// empty results, matching the client's 404 normalization.
type MockFTCClient struct {
	EventsFunc     func(ctx context.Context, season int) ([]ftcapi.Event, error)
	EventTeamsFunc func(ctx context.Context, season int, eventCode string) ([]ftcapi.Team, error)
	TeamFunc       func(ctx context.Context, season, teamNumber int) (*ftcapi.Team, error)
	ScheduleFunc   func(ctx context.Context, season int, eventCode, level string) ([]ftcapi.ScheduledMatch, error)
	MatchesFunc    func(ctx context.Context, season int, eventCode string) ([]ftcapi.MatchResult, error)
	ScoresFunc     func(ctx context.Context, season int, eventCode, level string) ([]ftcapi.MatchScores, error)
	RankingsFunc   func(ctx context.Context, season int, eventCode string) ([]ftcapi.EventRanking, error)
}

func (m *MockFTCClient) Events(ctx context.Context, season int) ([]ftcapi.Event, error) {
	if m.EventsFunc != nil {
		return m.EventsFunc(ctx, season)
	}
	return nil, nil
}

func (m *MockFTCClient) EventTeams(ctx context.Context, season int, eventCode string) ([]ftcapi.Team, error) {
	if m.EventTeamsFunc != nil {
		return m.EventTeamsFunc(ctx, season, eventCode)
	}
	return nil, nil
}

func (m *MockFTCClient) Team(ctx context.Context, season, teamNumber int) (*ftcapi.Team, error) {
	if m.TeamFunc != nil {
		return m.TeamFunc(ctx, season, teamNumber)
	}
	return &ftcapi.Team{TeamNumber: teamNumber}, nil
}

func (m *MockFTCClient) Schedule(ctx context.Context, season int, eventCode, level string) ([]ftcapi.ScheduledMatch, error) {
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, season, eventCode, level)
	}
	return nil, nil
}

func (m *MockFTCClient) Matches(ctx context.Context, season int, eventCode string) ([]ftcapi.MatchResult, error) {
	if m.MatchesFunc != nil {
		return m.MatchesFunc(ctx, season, eventCode)
	}
	return nil, nil
}

func (m *MockFTCClient) Scores(ctx context.Context, season int, eventCode, level string) ([]ftcapi.MatchScores, error) {
	if m.ScoresFunc != nil {
		return m.ScoresFunc(ctx, season, eventCode, level)
	}
	return nil, nil
}

func (m *MockFTCClient) Rankings(ctx context.Context, season int, eventCode string) ([]ftcapi.EventRanking, error) {
	if m.RankingsFunc != nil {
		return m.RankingsFunc(ctx, season, eventCode)
	}
	return nil, nil
}

// MockStore implements Store with an in-memory backing map. Individual
// funcs can be set to inject failures.
type MockStore struct {
	mu        sync.Mutex
	Locations map[int]models.TeamLocation
	Matches   map[string]models.Match
	Entries   map[string]models.ScoutingEntry

	UpsertTeamLocationsFunc func(ctx context.Context, locs []models.TeamLocation) error
	ArchiveMatchesFunc      func(ctx context.Context, matches []models.Match) error
	GetMatchFunc            func(ctx context.Context, season int, eventCode, level string, matchNumber int) (*models.Match, error)
	CreateScoutingEntryFunc func(ctx context.Context, e *models.ScoutingEntry) error
	GetScoutingEntryFunc    func(ctx context.Context, id string) (*models.ScoutingEntry, error)
	FindSyntheticEntryFunc  func(ctx context.Context, season int, eventCode, level string, matchNumber, teamNumber, scoutingTeam int) (*models.ScoutingEntry, error)
	ListEventEntriesFunc    func(ctx context.Context, season int, eventCode string) ([]models.ScoutingEntry, error)
}

func NewMockStore() *MockStore {
	return &MockStore{
		Locations: make(map[int]models.TeamLocation),
		Matches:   make(map[string]models.Match),
		Entries:   make(map[string]models.ScoutingEntry),
	}
}

func mockMatchKey(season int, eventCode, level string, matchNumber int) string {
	return fmt.Sprintf("%d/%s/%s/%d", season, eventCode, level, matchNumber)
}

func (m *MockStore) UpsertTeamLocations(ctx context.Context, locs []models.TeamLocation) error {
	if m.UpsertTeamLocationsFunc != nil {
		return m.UpsertTeamLocationsFunc(ctx, locs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range locs {
		m.Locations[l.TeamNumber] = l
	}
	return nil
}

func (m *MockStore) GetTeamLocation(ctx context.Context, teamNumber int) (*models.TeamLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.Locations[teamNumber]; ok {
		return &l, nil
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) ArchiveMatches(ctx context.Context, matches []models.Match) error {
	if m.ArchiveMatchesFunc != nil {
		return m.ArchiveMatchesFunc(ctx, matches)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range matches {
		m.Matches[mockMatchKey(match.Season, match.EventCode, match.TournamentLevel, match.MatchNumber)] = match
	}
	return nil
}

func (m *MockStore) GetMatch(ctx context.Context, season int, eventCode, level string, matchNumber int) (*models.Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(ctx, season, eventCode, level, matchNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if match, ok := m.Matches[mockMatchKey(season, eventCode, level, matchNumber)]; ok {
		return &match, nil
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) CreateScoutingEntry(ctx context.Context, e *models.ScoutingEntry) error {
	if m.CreateScoutingEntryFunc != nil {
		return m.CreateScoutingEntryFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[e.ID] = *e
	return nil
}

func (m *MockStore) GetScoutingEntry(ctx context.Context, id string) (*models.ScoutingEntry, error) {
	if m.GetScoutingEntryFunc != nil {
		return m.GetScoutingEntryFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Entries[id]; ok {
		return &e, nil
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) FindSyntheticEntry(ctx context.Context, season int, eventCode, level string, matchNumber, teamNumber, scoutingTeam int) (*models.ScoutingEntry, error) {
	if m.FindSyntheticEntryFunc != nil {
		return m.FindSyntheticEntryFunc(ctx, season, eventCode, level, matchNumber, teamNumber, scoutingTeam)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Synthetic && e.Season == season && e.EventCode == eventCode &&
			e.TournamentLevel == level && e.MatchNumber == matchNumber &&
			e.TeamNumber == teamNumber && e.ScoutingTeam == scoutingTeam {
			found := e
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) ListEventEntries(ctx context.Context, season int, eventCode string) ([]models.ScoutingEntry, error) {
	if m.ListEventEntriesFunc != nil {
		return m.ListEventEntriesFunc(ctx, season, eventCode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.ScoutingEntry
	for _, e := range m.Entries {
		if !e.Synthetic && e.Season == season && e.EventCode == eventCode {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// SyntheticEntries returns the stored synthetic entries, for assertions.
func (m *MockStore) SyntheticEntries() []models.ScoutingEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.ScoutingEntry
	for _, e := range m.Entries {
		if e.Synthetic {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// MockSnapshotStore implements SnapshotStore over a plain map.
type MockSnapshotStore struct {
	mu      sync.Mutex
	Values  map[string][]byte
	LastTTL time.Duration

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Values: make(map[string][]byte)}
}

func (m *MockSnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Values[key], nil
}

func (m *MockSnapshotStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Values[key] = value
	m.LastTTL = ttl
	return nil
}

// MockDataService implements DataService for rankings tests. Unset
// methods fall through to the embedded interface and panic if called.
type MockDataService struct {
	DataService
	GetEventsFunc     func(ctx context.Context) ([]ftcapi.Event, error)
	GetEventTeamsFunc func(ctx context.Context, eventCode string) ([]ftcapi.Team, error)
	GetMatchesFunc    func(ctx context.Context, eventCode string) ([]models.Match, error)
}

func (m *MockDataService) GetEvents(ctx context.Context) ([]ftcapi.Event, error) {
	if m.GetEventsFunc != nil {
		return m.GetEventsFunc(ctx)
	}
	return nil, nil
}

func (m *MockDataService) GetEventTeams(ctx context.Context, eventCode string) ([]ftcapi.Team, error) {
	if m.GetEventTeamsFunc != nil {
		return m.GetEventTeamsFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) GetMatches(ctx context.Context, eventCode string) ([]models.Match, error) {
	if m.GetMatchesFunc != nil {
		return m.GetMatchesFunc(ctx, eventCode)
	}
	return nil, nil
}
