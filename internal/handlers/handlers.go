package handlers

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// Pinger is the readiness surface of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Postgres       Pinger
	CacheStore     Pinger
	Logger         *zap.Logger
	AllowedOrigins []string
	Season         int
	// Services
	Data     logic.DataService
	Rankings logic.RankingsService
	Scouting logic.ScoutingService
}

type Handler struct {
	pg        Pinger
	kv        Pinger
	logger    *zap.SugaredLogger
	validator *validator.Validate
	origins   []string
	season    int
	data      logic.DataService
	rankings  logic.RankingsService
	scouting  logic.ScoutingService
}

func New(cfg Config) *Handler {
	return &Handler{
		pg:        cfg.Postgres,
		kv:        cfg.CacheStore,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
		origins:   cfg.AllowedOrigins,
		season:    cfg.Season,
		data:      cfg.Data,
		rankings:  cfg.Rankings,
		scouting:  cfg.Scouting,
	}
}

// Routes builds the full router: system endpoints at the root, the API
// under /api/v1.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Route("/events/{eventCode}", func(r chi.Router) {
			r.Get("/teams", h.GetEventTeams)
			r.Get("/schedule", h.GetEventSchedule)
			r.Get("/matches", h.GetEventMatches)
			r.Get("/scores", h.GetEventScores)
			r.Get("/rankings", h.GetEventRankings)
			r.Get("/opr", h.GetEventOPR)
			r.Get("/epa", h.GetEventEPA)
			r.Get("/predict", h.PredictMatch)
		})
		r.Get("/teams/{teamNumber}", h.GetTeam)

		r.Get("/rankings", h.GetRankings)
		r.Get("/rankings/teams/{teamNumber}", h.GetTeamRankings)
		r.Post("/rankings/refresh", h.RefreshRankings)

		r.Route("/scouting", func(r chi.Router) {
			r.Post("/entries", h.SubmitScoutingEntry)
			r.Get("/entries/{entryID}", h.GetScoutingEntry)
			r.Post("/entries/{entryID}/deduce", h.DeduceScoutingEntry)
			r.Post("/events/{eventCode}/deduce", h.DeduceEventEntries)
		})
	})

	return r
}
