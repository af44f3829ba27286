package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// SubmitScoutingEntry records a manual scouting observation
// @Summary Submit Scouting Entry
// @Description Record one team's scouted phase scores for a match; ?deduce=true derives the partner entry inline
// @Tags Scouting
// @Accept json
// @Produce json
// @Param body body models.SubmitScoutingRequest true "Scouting entry"
// @Param deduce query bool false "Run alliance deduction immediately"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /scouting/entries [post]
func (h *Handler) SubmitScoutingEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	var req models.SubmitScoutingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	entry, err := h.scouting.SubmitEntry(r.Context(), req)
	if err != nil {
		h.serviceError(w, r, err, "scouting entry")
		return
	}

	resp := map[string]interface{}{"entry": entry}
	if strings.EqualFold(r.URL.Query().Get("deduce"), "true") {
		result, err := h.scouting.DeduceEntry(r.Context(), entry.ID)
		if err != nil {
			h.serviceError(w, r, err, "scouting entry")
			return
		}
		resp["deduction"] = result
	}
	h.jsonResponse(w, http.StatusCreated, resp)
}

// GetScoutingEntry returns one stored scouting entry
// @Summary Get Scouting Entry
// @Description Fetch a scouting entry, manual or synthetic, by ID
// @Tags Scouting
// @Produce json
// @Param entryID path string true "Entry ID"
// @Success 200 {object} models.ScoutingEntry
// @Failure 404 {object} map[string]string
// @Router /scouting/entries/{entryID} [get]
func (h *Handler) GetScoutingEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.scouting.GetEntry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.serviceError(w, r, err, "scouting entry")
		return
	}
	h.jsonResponse(w, http.StatusOK, entry)
}

// DeduceScoutingEntry derives the alliance partner entry for one entry
// @Summary Deduce Partner Entry
// @Description Derive the synthetic partner entry for a scouting entry from alliance totals
// @Tags Scouting
// @Produce json
// @Param entryID path string true "Entry ID"
// @Success 200 {object} models.DeductionResult
// @Failure 404 {object} map[string]string
// @Router /scouting/entries/{entryID}/deduce [post]
func (h *Handler) DeduceScoutingEntry(w http.ResponseWriter, r *http.Request) {
	result, err := h.scouting.DeduceEntry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.serviceError(w, r, err, "scouting entry")
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// DeduceEventEntries retries deduction for every manual entry at an event
// @Summary Deduce Event Entries
// @Description Run alliance deduction across an event's manual entries; earlier unresolved attempts retry
// @Tags Scouting
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /scouting/events/{eventCode}/deduce [post]
func (h *Handler) DeduceEventEntries(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	results, err := h.scouting.DeduceEvent(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event entries")
		return
	}

	resolved := 0
	for i := range results {
		if results[i].Resolved() {
			resolved++
		}
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(results),
		"resolved":   resolved,
		"results":    results,
	})
}

// validationMessage flattens a validator error into one response line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Field()+" failed on the '"+fe.Tag()+"' rule")
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
