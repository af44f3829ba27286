package handlers

import (
	"net/http"
	"time"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// GetRankings returns a scoped page of the season rankings snapshot
// @Summary Get Season Rankings
// @Description Page through the season-wide EPA rankings, optionally scoped to a country or state
// @Tags Rankings
// @Produce json
// @Param scope query string false "Scope (world, country or state)"
// @Param country query string false "Country filter"
// @Param state query string false "State or province filter"
// @Param limit query int false "Page size (max 500)"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.ScopedRankings
// @Failure 503 {object} map[string]string
// @Router /rankings [get]
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	req := models.ScopedRankingsRequest{
		Scope:     q.Get("scope"),
		Country:   q.Get("country"),
		StateProv: q.Get("state"),
		Limit:     limit,
		Offset:    offset,
	}
	rankings, err := h.rankings.ScopedRankings(r.Context(), req)
	if err != nil {
		h.serviceError(w, r, err, "rankings")
		return
	}
	h.jsonResponse(w, http.StatusOK, rankings)
}

// GetTeamRankings returns one team's position at world, country and state scope
// @Summary Get Team Rankings
// @Description Look up a single team's rank at every scope it belongs to
// @Tags Rankings
// @Produce json
// @Param teamNumber path int true "Team number"
// @Success 200 {object} models.TeamRankDetail
// @Failure 404 {object} map[string]string
// @Router /rankings/teams/{teamNumber} [get]
func (h *Handler) GetTeamRankings(w http.ResponseWriter, r *http.Request) {
	teamNumber, err := teamNumberParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := h.rankings.TeamRankings(r.Context(), teamNumber)
	if err != nil {
		h.serviceError(w, r, err, "team rankings")
		return
	}
	h.jsonResponse(w, http.StatusOK, detail)
}

// RefreshRankings recomputes the season rankings snapshot
// @Summary Refresh Season Rankings
// @Description Recompute the season-wide snapshot from every completed event; rejects overlapping runs
// @Tags Rankings
// @Produce json
// @Success 200 {object} models.RefreshSummary
// @Failure 409 {object} map[string]string
// @Router /rankings/refresh [post]
func (h *Handler) RefreshRankings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snapshot, err := h.rankings.Refresh(r.Context())
	if err != nil {
		h.serviceError(w, r, err, "rankings")
		return
	}
	h.jsonResponse(w, http.StatusOK, models.RefreshSummary{
		Season:      snapshot.Season,
		EventsUsed:  snapshot.EventsUsed,
		TeamsRanked: len(snapshot.Teams),
		DurationMS:  time.Since(start).Milliseconds(),
		GeneratedAt: snapshot.GeneratedAt.UTC().Format(time.RFC3339),
	})
}
