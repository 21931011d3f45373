// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bstee615/go-sushi/internal/game"
	"github.com/bstee615/go-sushi/internal/middleware"
)

// Routes builds the HTTP surface: the game socket plus two read-only JSON
// endpoints.
func (gs *GameServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(gs.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(gs.AllowedOrigins),
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.HandleFunc("/ws", GameWSHandler(gs))
	r.Get("/health", gs.HealthHandler)
	r.Get("/games", gs.ListGamesHandler)
	return r
}

// corsOrigins turns websocket origin patterns (hosts) into CORS origins.
// With no patterns any http(s) origin may read the JSON endpoints.
func corsOrigins(patterns []string) []string {
	if len(patterns) == 0 {
		return []string{"https://*", "http://*"}
	}
	origins := make([]string, 0, len(patterns)*2)
	for _, p := range patterns {
		if strings.Contains(p, "://") {
			origins = append(origins, p)
			continue
		}
		origins = append(origins, "https://"+p, "http://"+p)
	}
	return origins
}

type healthResponse struct {
	Status      string `json:"status"`
	Games       int    `json:"games"`
	Connections int    `json:"connections"`
}

// HealthHandler reports liveness with a couple of gauges.
func (gs *GameServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Games:       gs.Store.Len(),
		Connections: gs.Hub.Count(),
	})
}

// ListGamesHandler returns the same list the socket sends for list_games.
func (gs *GameServer) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	games := gs.Store.List()
	if games == nil {
		games = []game.GameSummary{}
	}
	writeJSON(w, http.StatusOK, GamesListPayload{Games: games})
}
