package logic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/store"
)

type scoutingService struct {
	ftc    FTCClient
	store  Store
	season int
	log    *zap.SugaredLogger
	now    func() time.Time
	newID  func() string
}

func NewScoutingService(ftc FTCClient, st Store, season int, log *zap.SugaredLogger) ScoutingService {
	return &scoutingService{
		ftc:    ftc,
		store:  st,
		season: season,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SubmitEntry records a scouted performance. The request is validated
// at the handler boundary; totals are derived here so stored entries
// are always internally consistent.
func (s *scoutingService) SubmitEntry(ctx context.Context, req models.SubmitScoutingRequest) (*models.ScoutingEntry, error) {
	level := req.TournamentLevel
	if level == "" {
		level = models.LevelQual
	}
	entry := &models.ScoutingEntry{
		ID:              s.newID(),
		Season:          req.Season,
		EventCode:       strings.ToUpper(req.EventCode),
		TournamentLevel: level,
		MatchNumber:     req.MatchNumber,
		TeamNumber:      req.TeamNumber,
		ScoutingTeam:    req.ScoutingTeam,
		Alliance:        strings.ToLower(req.Alliance),
		AutoPoints:      req.AutoPoints,
		TeleopPoints:    req.TeleopPoints,
		EndgamePoints:   req.EndgamePoints,
		TotalPoints:     req.AutoPoints + req.TeleopPoints + req.EndgamePoints,
		Notes:           req.Notes,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateScoutingEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.log.Infow("scouting entry recorded",
		"id", entry.ID, "event", entry.EventCode, "match", entry.MatchNumber,
		"team", entry.TeamNumber, "scouted_by", entry.ScoutingTeam)
	return entry, nil
}

func (s *scoutingService) GetEntry(ctx context.Context, id string) (*models.ScoutingEntry, error) {
	return s.store.GetScoutingEntry(ctx, id)
}

// DeduceEntry derives the alliance partner's entry from one scouted
// entry plus official alliance totals. Duplicate and unresolved are
// ordinary outcomes reported in the result, not errors.
func (s *scoutingService) DeduceEntry(ctx context.Context, id string) (*models.DeductionResult, error) {
	entry, err := s.store.GetScoutingEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.deduce(ctx, entry), nil
}

// DeduceEvent runs deduction over every non-synthetic entry recorded for
// an event. One failed entry never stops the rest.
func (s *scoutingService) DeduceEvent(ctx context.Context, eventCode string) ([]models.DeductionResult, error) {
	entries, err := s.store.ListEventEntries(ctx, s.season, normalizeEventCode(eventCode))
	if err != nil {
		return nil, err
	}
	results := make([]models.DeductionResult, 0, len(entries))
	for i := range entries {
		results = append(results, *s.deduce(ctx, &entries[i]))
	}
	return results, nil
}

func (s *scoutingService) deduce(ctx context.Context, entry *models.ScoutingEntry) *models.DeductionResult {
	res := &models.DeductionResult{EntryID: entry.ID}

	if entry.Synthetic {
		res.Status = models.DeductionUnresolved
		res.Reason = "entry is itself deduced"
		return res
	}

	// The archived match row serves both partner and score resolution.
	archived, err := s.store.GetMatch(ctx, entry.Season, entry.EventCode, entry.TournamentLevel, entry.MatchNumber)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warnw("archived match lookup failed", "entry", entry.ID, "error", err)
		archived = nil
	}

	partner := partnerFromMatch(archived, entry.TeamNumber)
	if partner == 0 {
		partner = s.partnerFromSchedule(ctx, entry)
	}
	if partner == 0 {
		res.Status = models.DeductionUnresolved
		res.Reason = "alliance partner could not be resolved"
		return res
	}
	res.PartnerTeam = partner

	// A deduced entry for this (match, partner, scouting team) may
	// already exist; deduction is idempotent.
	existing, err := s.store.FindSyntheticEntry(ctx, entry.Season, entry.EventCode, entry.TournamentLevel, entry.MatchNumber, partner, entry.ScoutingTeam)
	if err == nil {
		res.Status = models.DeductionDuplicate
		res.PartnerEntryID = existing.ID
		res.TotalOnly = existing.TotalOnly
		return res
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Warnw("duplicate check failed", "entry", entry.ID, "error", err)
		res.Status = models.DeductionUnresolved
		res.Reason = "duplicate check failed"
		return res
	}

	alliance, totalOnly, ok := s.allianceScore(ctx, entry, archived)
	if !ok {
		res.Status = models.DeductionUnresolved
		res.Reason = "official alliance score unavailable"
		return res
	}

	synthetic := buildPartnerEntry(entry, partner, alliance, totalOnly, s.newID(), s.now().UTC())
	if err := s.store.CreateScoutingEntry(ctx, synthetic); err != nil {
		s.log.Warnw("partner entry write failed", "entry", entry.ID, "partner", partner, "error", err)
		res.Status = models.DeductionUnresolved
		res.Reason = "partner entry could not be stored"
		return res
	}

	s.log.Infow("partner entry deduced",
		"entry", entry.ID, "partner_entry", synthetic.ID,
		"event", entry.EventCode, "match", entry.MatchNumber,
		"partner", partner, "total_only", totalOnly)
	res.Status = models.DeductionCreated
	res.PartnerEntryID = synthetic.ID
	res.TotalOnly = totalOnly
	return res
}

// partnerFromSchedule resolves the partner from the official match
// schedule when the match is not archived yet.
func (s *scoutingService) partnerFromSchedule(ctx context.Context, entry *models.ScoutingEntry) int {
	schedule, err := s.ftc.Schedule(ctx, entry.Season, entry.EventCode, entry.TournamentLevel)
	if err != nil {
		s.log.Warnw("schedule fetch failed", "entry", entry.ID, "event", entry.EventCode, "error", err)
		return 0
	}
	for i := range schedule {
		if schedule[i].MatchNumber != entry.MatchNumber {
			continue
		}
		var station string
		for _, t := range schedule[i].Teams {
			if t.TeamNumber == entry.TeamNumber {
				station = t.Station
				break
			}
		}
		if station == "" {
			return 0
		}
		for _, t := range schedule[i].Teams {
			if t.TeamNumber != entry.TeamNumber && sameAllianceStation(t.Station, station) {
				return t.TeamNumber
			}
		}
		return 0
	}
	return 0
}

// allianceScore resolves the entry's alliance totals, trying the
// detailed score feed, then the archived match, then the played-match
// feed (totals only).
func (s *scoutingService) allianceScore(ctx context.Context, entry *models.ScoutingEntry, archived *models.Match) (models.PhaseScore, bool, bool) {
	scores, err := s.ftc.Scores(ctx, entry.Season, entry.EventCode, entry.TournamentLevel)
	if err != nil {
		s.log.Warnw("score fetch failed", "entry", entry.ID, "event", entry.EventCode, "error", err)
	}
	for i := range scores {
		if scores[i].MatchNumber != entry.MatchNumber {
			continue
		}
		if a, ok := scores[i].Alliance(entry.Alliance); ok {
			return models.PhaseScore{
				Total:   a.TotalPoints,
				Auto:    a.AutoPoints,
				Teleop:  a.DriverControlledPoints,
				Endgame: a.EndgamePoints,
			}, false, true
		}
	}

	if archived != nil {
		return archived.AllianceScore(entry.Alliance), !archived.PhaseBreakdown, true
	}

	results, err := s.ftc.Matches(ctx, entry.Season, entry.EventCode)
	if err != nil {
		s.log.Warnw("match fetch failed", "entry", entry.ID, "event", entry.EventCode, "error", err)
		return models.PhaseScore{}, false, false
	}
	for i := range results {
		r := &results[i]
		if r.MatchNumber != entry.MatchNumber || normalizeLevel(r.TournamentLevel) != entry.TournamentLevel {
			continue
		}
		total := r.ScoreRedFinal
		if entry.Alliance == models.AllianceBlue {
			total = r.ScoreBlueFinal
		}
		return models.PhaseScore{Total: total}, true, true
	}
	return models.PhaseScore{}, false, false
}

// partnerFromMatch reads the partner from an archived match row.
func partnerFromMatch(m *models.Match, team int) int {
	if m == nil {
		return 0
	}
	partner, ok := m.PartnerOf(team)
	if !ok {
		return 0
	}
	return partner
}

// sameAllianceStation reports whether two schedule stations share an
// alliance color (Red1/Red2, Blue1/Blue2).
func sameAllianceStation(a, b string) bool {
	prefix := func(s string) string {
		s = strings.ToLower(s)
		switch {
		case strings.HasPrefix(s, models.AllianceRed):
			return models.AllianceRed
		case strings.HasPrefix(s, models.AllianceBlue):
			return models.AllianceBlue
		}
		return ""
	}
	pa, pb := prefix(a), prefix(b)
	return pa != "" && pa == pb
}

// buildPartnerEntry derives the partner's entry by subtracting the
// scouted contribution from the official alliance score. Phase values
// clamp at zero so scouting overestimates never go negative; the stored
// total is the sum of the clamped phases. Total-only deductions carry
// just the clamped total.
func buildPartnerEntry(src *models.ScoutingEntry, partner int, alliance models.PhaseScore, totalOnly bool, id string, now time.Time) *models.ScoutingEntry {
	e := &models.ScoutingEntry{
		ID:              id,
		Season:          src.Season,
		EventCode:       src.EventCode,
		TournamentLevel: src.TournamentLevel,
		MatchNumber:     src.MatchNumber,
		TeamNumber:      partner,
		ScoutingTeam:    src.ScoutingTeam,
		Alliance:        src.Alliance,
		TotalOnly:       totalOnly,
		Synthetic:       true,
		DerivedFrom:     src.ID,
		CreatedAt:       now,
	}
	if totalOnly {
		e.TotalPoints = clampZero(alliance.Total - src.TotalPoints)
		return e
	}
	e.AutoPoints = clampZero(alliance.Auto - src.AutoPoints)
	e.TeleopPoints = clampZero(alliance.Teleop - src.TeleopPoints)
	e.EndgamePoints = clampZero(alliance.Endgame - src.EndgamePoints)
	e.TotalPoints = e.AutoPoints + e.TeleopPoints + e.EndgamePoints
	return e
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
