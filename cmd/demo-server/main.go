package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	ws "progresskit/adapters/websocket"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/progress"
	"progresskit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	svc := progress.New(
		progress.WithRealtime(hub),
		progress.WithDispatchMode(engine.DispatchAsync),
	)
	defer svc.Close()

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /users/{id}/actions, GET /users/{id}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		user := core.UserID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "actions" {
				var action core.Action
				if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
					http.Error(w, "malformed action", http.StatusBadRequest)
					return
				}
				action.UserID = user
				res, err := svc.Process(r.Context(), action)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				writeJSON(w, res)
				return
			}
		case http.MethodGet:
			st, err := svc.State(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, st)
			return
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
