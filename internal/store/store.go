// Package store persists the relational side of the service: team
// locations, the merged match archive and scouting entries.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DB is the pgx surface the store needs; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// UpsertTeamLocations writes roster locations, newest wins.
func (s *Store) UpsertTeamLocations(ctx context.Context, locs []models.TeamLocation) error {
	const q = `
		INSERT INTO team_locations (team_number, name_short, country, state_prov, city, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_number) DO UPDATE SET
			name_short = EXCLUDED.name_short,
			country = EXCLUDED.country,
			state_prov = EXCLUDED.state_prov,
			city = EXCLUDED.city,
			updated_at = EXCLUDED.updated_at`

	for _, loc := range locs {
		updated := loc.UpdatedAt
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		if _, err := s.db.Exec(ctx, q,
			loc.TeamNumber, loc.NameShort, loc.Country, loc.StateProv, loc.City, updated); err != nil {
			return fmt.Errorf("upsert team location %d: %w", loc.TeamNumber, err)
		}
	}
	return nil
}

func (s *Store) GetTeamLocation(ctx context.Context, teamNumber int) (*models.TeamLocation, error) {
	const q = `
		SELECT team_number, name_short, country, state_prov, city, updated_at
		FROM team_locations WHERE team_number = $1`

	var loc models.TeamLocation
	err := s.db.QueryRow(ctx, q, teamNumber).Scan(
		&loc.TeamNumber, &loc.NameShort, &loc.Country, &loc.StateProv, &loc.City, &loc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get team location %d: %w", teamNumber, err)
	}
	return &loc, nil
}

// ArchiveMatches upserts merged matches; the archive is the deduction
// fallback when live feeds are unavailable.
func (s *Store) ArchiveMatches(ctx context.Context, matches []models.Match) error {
	const q = `
		INSERT INTO matches (
			season, event_code, tournament_level, match_number, start_time,
			red1, red2, blue1, blue2,
			red_total, red_auto, red_teleop, red_endgame,
			blue_total, blue_auto, blue_teleop, blue_endgame,
			phase_breakdown
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (season, event_code, tournament_level, match_number) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			red1 = EXCLUDED.red1, red2 = EXCLUDED.red2,
			blue1 = EXCLUDED.blue1, blue2 = EXCLUDED.blue2,
			red_total = EXCLUDED.red_total, red_auto = EXCLUDED.red_auto,
			red_teleop = EXCLUDED.red_teleop, red_endgame = EXCLUDED.red_endgame,
			blue_total = EXCLUDED.blue_total, blue_auto = EXCLUDED.blue_auto,
			blue_teleop = EXCLUDED.blue_teleop, blue_endgame = EXCLUDED.blue_endgame,
			phase_breakdown = EXCLUDED.phase_breakdown`

	for _, m := range matches {
		if _, err := s.db.Exec(ctx, q,
			m.Season, m.EventCode, m.TournamentLevel, m.MatchNumber, nullableTime(m.StartTime),
			m.Red1, m.Red2, m.Blue1, m.Blue2,
			m.Red.Total, m.Red.Auto, m.Red.Teleop, m.Red.Endgame,
			m.Blue.Total, m.Blue.Auto, m.Blue.Teleop, m.Blue.Endgame,
			m.PhaseBreakdown); err != nil {
			return fmt.Errorf("archive match %s/%s #%d: %w", m.EventCode, m.TournamentLevel, m.MatchNumber, err)
		}
	}
	return nil
}

func (s *Store) GetMatch(ctx context.Context, season int, eventCode, level string, matchNumber int) (*models.Match, error) {
	const q = `
		SELECT season, event_code, tournament_level, match_number, start_time,
			red1, red2, blue1, blue2,
			red_total, red_auto, red_teleop, red_endgame,
			blue_total, blue_auto, blue_teleop, blue_endgame,
			phase_breakdown
		FROM matches
		WHERE season = $1 AND event_code = $2 AND tournament_level = $3 AND match_number = $4`

	var m models.Match
	var start *time.Time
	err := s.db.QueryRow(ctx, q, season, eventCode, level, matchNumber).Scan(
		&m.Season, &m.EventCode, &m.TournamentLevel, &m.MatchNumber, &start,
		&m.Red1, &m.Red2, &m.Blue1, &m.Blue2,
		&m.Red.Total, &m.Red.Auto, &m.Red.Teleop, &m.Red.Endgame,
		&m.Blue.Total, &m.Blue.Auto, &m.Blue.Teleop, &m.Blue.Endgame,
		&m.PhaseBreakdown)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s/%s #%d: %w", eventCode, level, matchNumber, err)
	}
	if start != nil {
		m.StartTime = *start
	}
	return &m, nil
}

func (s *Store) CreateScoutingEntry(ctx context.Context, e *models.ScoutingEntry) error {
	const q = `
		INSERT INTO scouting_entries (
			id, season, event_code, tournament_level, match_number,
			team_number, scouting_team, alliance,
			auto_points, teleop_points, endgame_points, total_points,
			total_only, synthetic, derived_from, notes, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	if _, err := s.db.Exec(ctx, q,
		e.ID, e.Season, e.EventCode, e.TournamentLevel, e.MatchNumber,
		e.TeamNumber, e.ScoutingTeam, e.Alliance,
		e.AutoPoints, e.TeleopPoints, e.EndgamePoints, e.TotalPoints,
		e.TotalOnly, e.Synthetic, nullableString(e.DerivedFrom), e.Notes, e.CreatedAt); err != nil {
		return fmt.Errorf("create scouting entry: %w", err)
	}
	return nil
}

func (s *Store) GetScoutingEntry(ctx context.Context, id string) (*models.ScoutingEntry, error) {
	const q = scoutingSelect + ` WHERE id = $1`

	row := s.db.QueryRow(ctx, q, id)
	e, err := scanScoutingEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scouting entry %s: %w", id, err)
	}
	return e, nil
}

// FindSyntheticEntry locates a previously deduced partner entry for the
// same match and scouting team; its presence makes deduction a no-op.
func (s *Store) FindSyntheticEntry(ctx context.Context, season int, eventCode, level string, matchNumber, teamNumber, scoutingTeam int) (*models.ScoutingEntry, error) {
	const q = scoutingSelect + `
		WHERE season = $1 AND event_code = $2 AND tournament_level = $3
			AND match_number = $4 AND team_number = $5 AND scouting_team = $6
			AND synthetic
		ORDER BY created_at LIMIT 1`

	row := s.db.QueryRow(ctx, q, season, eventCode, level, matchNumber, teamNumber, scoutingTeam)
	e, err := scanScoutingEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find synthetic entry: %w", err)
	}
	return e, nil
}

// ListEventEntries returns the observed (non-synthetic) entries for an
// event, oldest first.
func (s *Store) ListEventEntries(ctx context.Context, season int, eventCode string) ([]models.ScoutingEntry, error) {
	const q = scoutingSelect + `
		WHERE season = $1 AND event_code = $2 AND NOT synthetic
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, q, season, eventCode)
	if err != nil {
		return nil, fmt.Errorf("list event entries %s: %w", eventCode, err)
	}
	defer rows.Close()

	var entries []models.ScoutingEntry
	for rows.Next() {
		e, err := scanScoutingEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scouting entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event entries %s: %w", eventCode, err)
	}
	return entries, nil
}

const scoutingSelect = `
	SELECT id, season, event_code, tournament_level, match_number,
		team_number, scouting_team, alliance,
		auto_points, teleop_points, endgame_points, total_points,
		total_only, synthetic, derived_from, notes, created_at
	FROM scouting_entries`

func scanScoutingEntry(row pgx.Row) (*models.ScoutingEntry, error) {
	var e models.ScoutingEntry
	var derived *string
	if err := row.Scan(
		&e.ID, &e.Season, &e.EventCode, &e.TournamentLevel, &e.MatchNumber,
		&e.TeamNumber, &e.ScoutingTeam, &e.Alliance,
		&e.AutoPoints, &e.TeleopPoints, &e.EndgamePoints, &e.TotalPoints,
		&e.TotalOnly, &e.Synthetic, &derived, &e.Notes, &e.CreatedAt); err != nil {
		return nil, err
	}
	if derived != nil {
		e.DerivedFrom = *derived
	}
	return &e, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
