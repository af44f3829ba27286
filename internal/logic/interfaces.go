package logic

import (
	"context"
	"errors"
	"time"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// Read-path sentinels, mapped to response codes at the handler boundary.
var (
	ErrSnapshotNotReady = errors.New("rankings snapshot not computed yet")
	ErrTeamNotRanked    = errors.New("team not in rankings snapshot")
	ErrRefreshRunning   = errors.New("rankings refresh already running")
	ErrInvalidScope     = errors.New("invalid rankings scope")
)

// FTCClient is the upstream surface the services consume. The concrete
// client caches transparently; services never manage cache keys.
type FTCClient interface {
	Events(ctx context.Context, season int) ([]ftcapi.Event, error)
	EventTeams(ctx context.Context, season int, eventCode string) ([]ftcapi.Team, error)
	Team(ctx context.Context, season, teamNumber int) (*ftcapi.Team, error)
	Schedule(ctx context.Context, season int, eventCode, level string) ([]ftcapi.ScheduledMatch, error)
	Matches(ctx context.Context, season int, eventCode string) ([]ftcapi.MatchResult, error)
	Scores(ctx context.Context, season int, eventCode, level string) ([]ftcapi.MatchScores, error)
	Rankings(ctx context.Context, season int, eventCode string) ([]ftcapi.EventRanking, error)
}

// Store is the persistence surface the services consume; *store.Store
// implements it.
type Store interface {
	UpsertTeamLocations(ctx context.Context, locs []models.TeamLocation) error
	GetTeamLocation(ctx context.Context, teamNumber int) (*models.TeamLocation, error)
	ArchiveMatches(ctx context.Context, matches []models.Match) error
	GetMatch(ctx context.Context, season int, eventCode, level string, matchNumber int) (*models.Match, error)
	CreateScoutingEntry(ctx context.Context, e *models.ScoutingEntry) error
	GetScoutingEntry(ctx context.Context, id string) (*models.ScoutingEntry, error)
	FindSyntheticEntry(ctx context.Context, season int, eventCode, level string, matchNumber, teamNumber, scoutingTeam int) (*models.ScoutingEntry, error)
	ListEventEntries(ctx context.Context, season int, eventCode string) ([]models.ScoutingEntry, error)
}

// SnapshotStore is the KV surface holding the live rankings snapshot;
// cache.Store implements it.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DataService exposes the cached FTC feeds and the per-event estimators.
type DataService interface {
	GetEvents(ctx context.Context) ([]ftcapi.Event, error)
	GetEventTeams(ctx context.Context, eventCode string) ([]ftcapi.Team, error)
	GetTeam(ctx context.Context, teamNumber int) (*ftcapi.Team, error)
	GetSchedule(ctx context.Context, eventCode, level string) ([]ftcapi.ScheduledMatch, error)
	GetRawMatches(ctx context.Context, eventCode string) ([]ftcapi.MatchResult, error)
	GetScores(ctx context.Context, eventCode, level string) ([]ftcapi.MatchScores, error)
	GetEventRankings(ctx context.Context, eventCode string) ([]ftcapi.EventRanking, error)
	GetMatches(ctx context.Context, eventCode string) ([]models.Match, error)
	GetEventOPR(ctx context.Context, eventCode string) ([]models.TeamOPRRank, error)
	GetEventEPA(ctx context.Context, eventCode string) ([]models.TeamEPARank, error)
	PredictEventMatch(ctx context.Context, eventCode string, req models.PredictMatchRequest) (*models.MatchPrediction, error)
}

// RankingsService maintains and serves the season-wide snapshot.
type RankingsService interface {
	Refresh(ctx context.Context) (*models.RankingsSnapshot, error)
	TeamRankings(ctx context.Context, teamNumber int) (*models.TeamRankDetail, error)
	ScopedRankings(ctx context.Context, req models.ScopedRankingsRequest) (*models.ScopedRankings, error)
}

// ScoutingService records entries and derives alliance partners.
type ScoutingService interface {
	SubmitEntry(ctx context.Context, req models.SubmitScoutingRequest) (*models.ScoutingEntry, error)
	GetEntry(ctx context.Context, id string) (*models.ScoutingEntry, error)
	DeduceEntry(ctx context.Context, id string) (*models.DeductionResult, error)
	DeduceEvent(ctx context.Context, eventCode string) ([]models.DeductionResult, error)
}
