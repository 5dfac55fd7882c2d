// Package httpapi exposes the progression engine over REST plus a
// WebSocket event stream.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	wsadapter "progresskit/adapters/websocket"
	"progresskit/analytics"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/leaderboard"
	"progresskit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewMux builds an http.Handler exposing the progression REST API and
// WebSocket stream. hub and board are optional.
// Routes:
//   - POST {prefix}/users/{id}/actions
//   - POST {prefix}/users/{id}/prestige
//   - POST {prefix}/users/{id}/sweep
//   - GET  {prefix}/users/{id}
//   - GET  {prefix}/users/{id}/achievements
//   - GET  {prefix}/users/{id}/streaks
//   - GET  {prefix}/users/{id}/ledger?limit=50
//   - GET  {prefix}/leaderboard?n=10
//   - POST {prefix}/analytics/trend | correlation | heatmap | prediction
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewMux(coord *engine.Coordinator, hub *realtime.Hub, board leaderboard.Board, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, coord)
	})

	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	if board != nil {
		mux.HandleFunc(withPrefix(opts.PathPrefix, "/leaderboard"), func(w http.ResponseWriter, r *http.Request) {
			n, _ := strconv.Atoi(r.URL.Query().Get("n"))
			if n <= 0 {
				n = 10
			}
			writeJSON(w, board.TopN(n))
		})
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/analytics/"), func(w http.ResponseWriter, r *http.Request) {
		handleAnalytics(w, r, opts.PathPrefix)
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/users/"), func(w http.ResponseWriter, r *http.Request) {
		handleUsers(w, r, coord, opts.PathPrefix)
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

func handleUsers(w http.ResponseWriter, r *http.Request, coord *engine.Coordinator, prefix string) {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	parts := split(path, '/')
	if len(parts) < 2 {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}
	user, err := core.NormalizeUserID(core.UserID(parts[1]))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
		return
	}

	switch {
	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "actions":
		var action core.Action
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed action", nil)
			return
		}
		action.UserID = user
		res, err := coord.Process(r.Context(), action)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, res)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "prestige":
		state, err := coord.Prestige(r.Context(), user)
		if err != nil {
			writeError(w, http.StatusConflict, "prestige_unavailable", err.Error(), nil)
			return
		}
		writeJSON(w, state)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "sweep":
		broken, err := coord.SweepContinuity(r.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"broken": broken})

	case r.Method == http.MethodGet && len(parts) == 2:
		state, err := coord.State(r.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, state)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "achievements":
		defs, progress, err := coord.Achievements(r.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"definitions": defs, "progress": progress})

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "streaks":
		streaks, err := coord.Streaks(r.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, streaks)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "ledger":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := coord.Ledger(r.Context(), user, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, entries)

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

type correlationRequest struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type heatmapRequest struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Counts map[string]int `json:"counts"`
	Target int            `json:"target"`
}

func handleAnalytics(w http.ResponseWriter, r *http.Request, prefix string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)
	parts := split(path, '/')
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}

	switch parts[1] {
	case "trend":
		var req struct {
			Values []float64 `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed request", nil)
			return
		}
		writeJSON(w, analytics.AnalyzeTrend(req.Values))

	case "correlation":
		var req correlationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed request", nil)
			return
		}
		writeJSON(w, analytics.Correlate(req.X, req.Y))

	case "heatmap":
		var req heatmapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed request", nil)
			return
		}
		from, err := core.ParseDay(req.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error(), nil)
			return
		}
		to, err := core.ParseDay(req.To)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", err.Error(), nil)
			return
		}
		counts := make(map[core.Day]int, len(req.Counts))
		for raw, count := range req.Counts {
			d, err := core.ParseDay(raw)
			if err != nil {
				continue
			}
			counts[d] = count
		}
		writeJSON(w, analytics.Heatmap(from, to, counts, req.Target))

	case "prediction":
		var req analytics.PredictionInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed request", nil)
			return
		}
		writeJSON(w, analytics.PredictSuccess(req))

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

// healthCheck verifies storage works with a lightweight probe read.
func healthCheck(w http.ResponseWriter, r *http.Request, coord *engine.Coordinator) {
	_, err := coord.State(r.Context(), core.UserID("healthcheck_probe"))

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}

	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, status)
}
