package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// MockDataService
type MockDataService struct {
	GetEventsFunc         func(ctx context.Context) ([]ftcapi.Event, error)
	GetEventTeamsFunc     func(ctx context.Context, eventCode string) ([]ftcapi.Team, error)
	GetTeamFunc           func(ctx context.Context, teamNumber int) (*ftcapi.Team, error)
	GetScheduleFunc       func(ctx context.Context, eventCode, level string) ([]ftcapi.ScheduledMatch, error)
	GetRawMatchesFunc     func(ctx context.Context, eventCode string) ([]ftcapi.MatchResult, error)
	GetScoresFunc         func(ctx context.Context, eventCode, level string) ([]ftcapi.MatchScores, error)
	GetEventRankingsFunc  func(ctx context.Context, eventCode string) ([]ftcapi.EventRanking, error)
	GetMatchesFunc        func(ctx context.Context, eventCode string) ([]models.Match, error)
	GetEventOPRFunc       func(ctx context.Context, eventCode string) ([]models.TeamOPRRank, error)
	GetEventEPAFunc       func(ctx context.Context, eventCode string) ([]models.TeamEPARank, error)
	PredictEventMatchFunc func(ctx context.Context, eventCode string, req models.PredictMatchRequest) (*models.MatchPrediction, error)
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

func (m *MockDataService) GetTeam(ctx context.Context, teamNumber int) (*ftcapi.Team, error) {
	if m.GetTeamFunc != nil {
		return m.GetTeamFunc(ctx, teamNumber)
	}
	return &ftcapi.Team{TeamNumber: teamNumber}, nil
}

func (m *MockDataService) GetSchedule(ctx context.Context, eventCode, level string) ([]ftcapi.ScheduledMatch, error) {
	if m.GetScheduleFunc != nil {
		return m.GetScheduleFunc(ctx, eventCode, level)
	}
	return nil, nil
}

func (m *MockDataService) GetRawMatches(ctx context.Context, eventCode string) ([]ftcapi.MatchResult, error) {
	if m.GetRawMatchesFunc != nil {
		return m.GetRawMatchesFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) GetScores(ctx context.Context, eventCode, level string) ([]ftcapi.MatchScores, error) {
	if m.GetScoresFunc != nil {
		return m.GetScoresFunc(ctx, eventCode, level)
	}
	return nil, nil
}

func (m *MockDataService) GetEventRankings(ctx context.Context, eventCode string) ([]ftcapi.EventRanking, error) {
	if m.GetEventRankingsFunc != nil {
		return m.GetEventRankingsFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) GetMatches(ctx context.Context, eventCode string) ([]models.Match, error) {
	if m.GetMatchesFunc != nil {
		return m.GetMatchesFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) GetEventOPR(ctx context.Context, eventCode string) ([]models.TeamOPRRank, error) {
	if m.GetEventOPRFunc != nil {
		return m.GetEventOPRFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) GetEventEPA(ctx context.Context, eventCode string) ([]models.TeamEPARank, error) {
	if m.GetEventEPAFunc != nil {
		return m.GetEventEPAFunc(ctx, eventCode)
	}
	return nil, nil
}

func (m *MockDataService) PredictEventMatch(ctx context.Context, eventCode string, req models.PredictMatchRequest) (*models.MatchPrediction, error) {
	if m.PredictEventMatchFunc != nil {
		return m.PredictEventMatchFunc(ctx, eventCode, req)
	}
	return &models.MatchPrediction{}, nil
}

// MockRankingsService
type MockRankingsService struct {
	RefreshFunc        func(ctx context.Context) (*models.RankingsSnapshot, error)
	TeamRankingsFunc   func(ctx context.Context, teamNumber int) (*models.TeamRankDetail, error)
	ScopedRankingsFunc func(ctx context.Context, req models.ScopedRankingsRequest) (*models.ScopedRankings, error)
}

func (m *MockRankingsService) Refresh(ctx context.Context) (*models.RankingsSnapshot, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return &models.RankingsSnapshot{}, nil
}

func (m *MockRankingsService) TeamRankings(ctx context.Context, teamNumber int) (*models.TeamRankDetail, error) {
	if m.TeamRankingsFunc != nil {
		return m.TeamRankingsFunc(ctx, teamNumber)
	}
	return &models.TeamRankDetail{}, nil
}

func (m *MockRankingsService) ScopedRankings(ctx context.Context, req models.ScopedRankingsRequest) (*models.ScopedRankings, error) {
	if m.ScopedRankingsFunc != nil {
		return m.ScopedRankingsFunc(ctx, req)
	}
	return &models.ScopedRankings{}, nil
}

// MockScoutingService
type MockScoutingService struct {
	SubmitEntryFunc func(ctx context.Context, req models.SubmitScoutingRequest) (*models.ScoutingEntry, error)
	GetEntryFunc    func(ctx context.Context, id string) (*models.ScoutingEntry, error)
	DeduceEntryFunc func(ctx context.Context, id string) (*models.DeductionResult, error)
	DeduceEventFunc func(ctx context.Context, eventCode string) ([]models.DeductionResult, error)
}

func (m *MockScoutingService) SubmitEntry(ctx context.Context, req models.SubmitScoutingRequest) (*models.ScoutingEntry, error) {
	if m.SubmitEntryFunc != nil {
		return m.SubmitEntryFunc(ctx, req)
	}
	return &models.ScoutingEntry{ID: "mock-entry"}, nil
}

func (m *MockScoutingService) GetEntry(ctx context.Context, id string) (*models.ScoutingEntry, error) {
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(ctx, id)
	}
	return &models.ScoutingEntry{ID: id}, nil
}

func (m *MockScoutingService) DeduceEntry(ctx context.Context, id string) (*models.DeductionResult, error) {
	if m.DeduceEntryFunc != nil {
		return m.DeduceEntryFunc(ctx, id)
	}
	return &models.DeductionResult{EntryID: id, Status: models.DeductionCreated}, nil
}

func (m *MockScoutingService) DeduceEvent(ctx context.Context, eventCode string) ([]models.DeductionResult, error) {
	if m.DeduceEventFunc != nil {
		return m.DeduceEventFunc(ctx, eventCode)
	}
	return nil, nil
}

// mockPinger fakes a readiness check.
type mockPinger struct {
	err error
}

func (p *mockPinger) Ping(ctx context.Context) error { return p.err }

// newTestHandler builds a Handler with every backing dependency mocked.
// Nil service arguments fall back to zero-value mocks.
func newTestHandler(data *MockDataService, rankings *MockRankingsService, scouting *MockScoutingService) *Handler {
	if data == nil {
		data = &MockDataService{}
	}
	if rankings == nil {
		rankings = &MockRankingsService{}
	}
	if scouting == nil {
		scouting = &MockScoutingService{}
	}
	return &Handler{
		pg:        &mockPinger{},
		kv:        &mockPinger{},
		logger:    zap.NewNop().Sugar(),
		validator: validator.New(),
		season:    2024,
		data:      data,
		rankings:  rankings,
		scouting:  scouting,
	}
}

// paramRequest builds a request carrying chi route parameters.
func paramRequest(method, target string, body io.Reader, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
