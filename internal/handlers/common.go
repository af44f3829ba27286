package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/store"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]bool{
		"postgres": h.pg.Ping(ctx) == nil,
		"cache":    h.kv.Ping(ctx) == nil,
	}

	ready := true
	for _, ok := range checks {
		if !ok {
			ready = false
			break
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps service failures onto response codes. Internal and
// upstream errors are logged in full but returned generically.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var statusErr *ftcapi.StatusError
	switch {
	case errors.Is(err, logic.ErrSnapshotNotReady):
		h.errorResponse(w, http.StatusServiceUnavailable, "rankings not computed yet")
	case errors.Is(err, logic.ErrRefreshRunning):
		h.errorResponse(w, http.StatusConflict, "a rankings refresh is already running")
	case errors.Is(err, logic.ErrTeamNotRanked), errors.Is(err, store.ErrNotFound):
		h.errorResponse(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, logic.ErrInvalidScope):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case ftcapi.IsNotFound(err):
		h.errorResponse(w, http.StatusNotFound, what+" not found")
	case errors.As(err, &statusErr):
		h.logger.Errorw("upstream request failed",
			"path", r.URL.Path, "upstream_status", statusErr.Code, "error", err)
		h.errorResponse(w, http.StatusBadGateway, "upstream data source unavailable")
	default:
		h.logger.Errorw("request failed", "path", r.URL.Path, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// eventCodeParam returns the uppercased {eventCode} route parameter.
func eventCodeParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "eventCode"))
}

// teamNumberParam parses the {teamNumber} route parameter.
func teamNumberParam(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "teamNumber"))
	if err != nil || n <= 0 {
		return 0, errors.New("team number must be a positive integer")
	}
	return n, nil
}

// levelQuery parses the optional ?level= query parameter.
func levelQuery(r *http.Request) (string, error) {
	level := strings.ToLower(r.URL.Query().Get("level"))
	switch level {
	case "":
		return models.LevelQual, nil
	case models.LevelQual, models.LevelPlayoff:
		return level, nil
	}
	return "", errors.New("level must be qual or playoff")
}

// intQuery parses an optional integer query parameter, returning 0 when
// absent.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
