package handlers

import (
	"net/http"
)

// ListEvents returns the season event list
// @Summary List Season Events
// @Description Fetch every event in the configured season
// @Tags Events
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.data.GetEvents(r.Context())
	if err != nil {
		h.serviceError(w, r, err, "event list")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"season": h.season,
		"count":  len(events),
		"events": events,
	})
}

// GetEventTeams returns an event's team roster
// @Summary Get Event Teams
// @Description Fetch the full team roster registered at an event
// @Tags Events
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /events/{eventCode}/teams [get]
func (h *Handler) GetEventTeams(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	teams, err := h.data.GetEventTeams(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(teams),
		"teams":      teams,
	})
}

// GetTeam returns one team's season profile
// @Summary Get Team
// @Description Fetch a team's registration profile for the season
// @Tags Teams
// @Produce json
// @Param teamNumber path int true "Team number"
// @Success 200 {object} ftcapi.Team
// @Failure 404 {object} map[string]string
// @Router /teams/{teamNumber} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamNumber, err := teamNumberParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	team, err := h.data.GetTeam(r.Context(), teamNumber)
	if err != nil {
		h.serviceError(w, r, err, "team")
		return
	}
	h.jsonResponse(w, http.StatusOK, team)
}

// GetEventSchedule returns an event's match schedule
// @Summary Get Event Schedule
// @Description Fetch the match schedule for one tournament level
// @Tags Events
// @Produce json
// @Param eventCode path string true "Event code"
// @Param level query string false "Tournament level (qual or playoff)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /events/{eventCode}/schedule [get]
func (h *Handler) GetEventSchedule(w http.ResponseWriter, r *http.Request) {
	level, err := levelQuery(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	eventCode := eventCodeParam(r)
	schedule, err := h.data.GetSchedule(r.Context(), eventCode, level)
	if err != nil {
		h.serviceError(w, r, err, "schedule")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"level":      level,
		"count":      len(schedule),
		"schedule":   schedule,
	})
}

// GetEventMatches returns an event's played matches with phase scores
// @Summary Get Event Matches
// @Description Fetch played matches merged with their phase score breakdowns
// @Tags Events
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /events/{eventCode}/matches [get]
func (h *Handler) GetEventMatches(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	matches, err := h.data.GetMatches(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(matches),
		"matches":    matches,
	})
}

// GetEventScores returns an event's raw detailed score rows
// @Summary Get Event Scores
// @Description Fetch the detailed score feed for one tournament level
// @Tags Events
// @Produce json
// @Param eventCode path string true "Event code"
// @Param level query string false "Tournament level (qual or playoff)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /events/{eventCode}/scores [get]
func (h *Handler) GetEventScores(w http.ResponseWriter, r *http.Request) {
	level, err := levelQuery(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	eventCode := eventCodeParam(r)
	scores, err := h.data.GetScores(r.Context(), eventCode, level)
	if err != nil {
		h.serviceError(w, r, err, "scores")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"level":      level,
		"count":      len(scores),
		"scores":     scores,
	})
}

// GetEventRankings returns the official event ranking feed
// @Summary Get Event Rankings
// @Description Fetch the official qualification rankings published for an event
// @Tags Events
// @Produce json
// @Param eventCode path string true "Event code"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Router /events/{eventCode}/rankings [get]
func (h *Handler) GetEventRankings(w http.ResponseWriter, r *http.Request) {
	eventCode := eventCodeParam(r)
	rankings, err := h.data.GetEventRankings(r.Context(), eventCode)
	if err != nil {
		h.serviceError(w, r, err, "event rankings")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"event_code": eventCode,
		"count":      len(rankings),
		"rankings":   rankings,
	})
}
