package handlers

import (
	"net/http"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// GetEventOPR returns OPR ratings computed from an event's match results
// @Summary Get Event OPR
// @Description Compute offensive power ratings for every team at an event
// @Tags Analytics
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /events/{eventCode}/opr [get]
func (h *Handler) GetEventOPR(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	ranks, err := h.data.GetEventOPR(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(ranks),
		"opr":        ranks,
	})
}

// GetEventEPA returns EPA ratings computed from an event's match results
// @Summary Get Event EPA
// @Description Compute expected-points-added ratings for every team at an event
// @Tags Analytics
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /events/{eventCode}/epa [get]
func (h *Handler) GetEventEPA(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	ranks, err := h.data.GetEventEPA(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(ranks),
		"epa":        ranks,
	})
}

// PredictMatch returns a win probability for a hypothetical alliance pairing
// @Summary Predict Match
// @Description Predict the outcome of a match between two alliances using event EPA
// @Tags Analytics
// @Produce json
// @Param eventCode path string true "Event code"
// @Param red1 query int true "Red alliance team 1"
// @Param red2 query int true "Red alliance team 2"
// @Param blue1 query int true "Blue alliance team 1"
// @Param blue2 query int true "Blue alliance team 2"
// @Success 200 {object} models.MatchPrediction
// @Failure 400 {object} map[string]string
// @Router /events/{eventCode}/predict [get]
func (h *Handler) PredictMatch(w http.ResponseWriter, r *http.Request) {
	var req models.PredictMatchRequest
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"red1", &req.Red1},
		{"red2", &req.Red2},
		{"blue1", &req.Blue1},
		{"blue2", &req.Blue2},
	} {
		n, err := intQuery(r, p.name)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		if n <= 0 {
			h.errorResponse(w, http.StatusBadRequest, p.name+" must be a positive team number")
			return
		}
		*p.dst = n
	}

	eventCode := eventCodeParam(r)
	prediction, err := h.data.PredictEventMatch(r.Context(), eventCode, req)
	if err != nil {
		h.serviceError(w, r, err, "event")
		return
	}
	h.jsonResponse(w, http.StatusOK, prediction)
}
