package ftcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/cache"
)

const defaultBaseURL = "https://ftc-api.firstinspires.org"

// Prometheus metrics
var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftc_upstream_requests_total",
		Help: "Requests sent to the FTC Events API by endpoint class and status class",
	}, []string{"class", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ftc_upstream_request_duration_seconds",
		Help:    "FTC Events API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"class"})
)

// StatusError is a terminal non-2xx response from the FTC Events API.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ftc api: status %d for %s", e.Code, e.Path)
}

// Temporary reports whether the status class is retryable.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsNotFound reports whether err is an upstream 404. The API answers
// 404 for feeds that simply have no rows yet (scores before the first
// match is played), so list accessors normalize it to an empty result.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Config struct {
	BaseURL    string
	Username   string
	Token      string
	HTTPClient *http.Client
	Cache      *cache.TieredCache // nil disables caching
	Logger     *zap.SugaredLogger
	MaxRetries int
}

// Client reads the FTC Events API v2.0 with Basic auth. When a tiered
// cache is configured, every accessor is served through it keyed by
// endpoint; callers never see the difference.
type Client struct {
	http       *http.Client
	baseURL    string
	username   string
	token      string
	cache      *cache.TieredCache
	log        *zap.SugaredLogger
	maxRetries int
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		username:   cfg.Username,
		token:      cfg.Token,
		cache:      cfg.Cache,
		log:        logger,
		maxRetries: maxRetries,
	}
}

// Events lists the season's events.
func (c *Client) Events(ctx context.Context, season int) ([]Event, error) {
	key := fmt.Sprintf("events/%d", season)
	path := fmt.Sprintf("/v2.0/%d/events", season)
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		return nil, err
	}
	var env eventsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return env.Events, nil
}

// EventTeams lists the roster of an event, following pagination.
func (c *Client) EventTeams(ctx context.Context, season int, eventCode string) ([]Team, error) {
	var teams []Team
	for page := 1; ; page++ {
		key := fmt.Sprintf("teams/%d/%s/page/%d", season, eventCode, page)
		path := fmt.Sprintf("/v2.0/%d/teams?eventCode=%s&page=%d", season, url.QueryEscape(eventCode), page)
		raw, err := c.fetch(ctx, key, path)
		if err != nil {
			if IsNotFound(err) {
				return teams, nil
			}
			return nil, err
		}
		var env teamsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode teams: %w", err)
		}
		teams = append(teams, env.Teams...)
		if env.PageTotal <= page {
			return teams, nil
		}
	}
}

// Team looks up a single team.
func (c *Client) Team(ctx context.Context, season, teamNumber int) (*Team, error) {
	key := fmt.Sprintf("teams/%d/number/%d", season, teamNumber)
	path := fmt.Sprintf("/v2.0/%d/teams?teamNumber=%d", season, teamNumber)
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		return nil, err
	}
	var env teamsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode team: %w", err)
	}
	if len(env.Teams) == 0 {
		return nil, &StatusError{Code: http.StatusNotFound, Path: path}
	}
	return &env.Teams[0], nil
}

// Schedule lists the scheduled matches of an event at one tournament
// level. Unpublished schedules come back empty.
func (c *Client) Schedule(ctx context.Context, season int, eventCode, level string) ([]ScheduledMatch, error) {
	key := fmt.Sprintf("schedule/%d/%s/%s", season, eventCode, level)
	path := fmt.Sprintf("/v2.0/%d/schedule/%s?tournamentLevel=%s", season, url.PathEscape(eventCode), url.QueryEscape(level))
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var env scheduleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return env.Schedule, nil
}

// Matches lists the played matches of an event, all levels.
func (c *Client) Matches(ctx context.Context, season int, eventCode string) ([]MatchResult, error) {
	key := fmt.Sprintf("matches/%d/%s", season, eventCode)
	path := fmt.Sprintf("/v2.0/%d/matches/%s", season, url.PathEscape(eventCode))
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var env matchesEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return env.Matches, nil
}

// Scores lists the detailed score breakdowns of an event at one level.
func (c *Client) Scores(ctx context.Context, season int, eventCode, level string) ([]MatchScores, error) {
	key := fmt.Sprintf("scores/%d/%s/%s", season, eventCode, level)
	path := fmt.Sprintf("/v2.0/%d/scores/%s/%s", season, url.PathEscape(eventCode), url.PathEscape(level))
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var env scoresEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return env.MatchScores, nil
}

// Rankings lists the official event ranking feed.
func (c *Client) Rankings(ctx context.Context, season int, eventCode string) ([]EventRanking, error) {
	key := fmt.Sprintf("rankings/%d/%s", season, eventCode)
	path := fmt.Sprintf("/v2.0/%d/rankings/%s", season, url.PathEscape(eventCode))
	raw, err := c.fetch(ctx, key, path)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var env rankingsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode rankings: %w", err)
	}
	return env.Rankings, nil
}

func (c *Client) fetch(ctx context.Context, key, path string) ([]byte, error) {
	if c.cache == nil {
		return c.do(ctx, path)
	}
	return c.cache.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, path)
	})
}

// do issues the request with retries on network errors, 429 and 5xx:
// exponential backoff with jitter, honoring Retry-After when present.
func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	class := endpointClass(path)
	start := time.Now()
	defer func() {
		upstreamDuration.WithLabelValues(class).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request %s: %w", path, err)
		}
		req.SetBasicAuth(c.username, c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "ftcmetrics/2.0")

		resp, err := c.http.Do(req)
		if err != nil {
			upstreamRequests.WithLabelValues(class, "error").Inc()
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			upstreamRequests.WithLabelValues(class, statusClass(resp.StatusCode)).Inc()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if readErr != nil {
					return nil, fmt.Errorf("read response %s: %w", path, readErr)
				}
				return body, nil
			}

			statusErr := &StatusError{Code: resp.StatusCode, Path: path}
			if !statusErr.Temporary() {
				return nil, statusErr
			}
			lastErr = statusErr

			if attempt < c.maxRetries {
				if d := retryAfter(resp); d > 0 {
					if err := sleep(ctx, d); err != nil {
						return nil, err
					}
					continue
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		delay := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
		jitter := time.Duration(rand.Intn(250)) * time.Millisecond
		c.log.Debugw("retrying ftc api request",
			"path", path, "attempt", attempt, "delay", (delay + jitter).String(), "error", lastErr)
		if err := sleep(ctx, delay+jitter); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("ftc api %s after %d attempts: %w", path, c.maxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// endpointClass extracts the feed name from "/v2.0/{season}/{feed}...".
func endpointClass(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 3 {
		return "other"
	}
	class, _, _ := strings.Cut(parts[2], "?")
	return class
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
