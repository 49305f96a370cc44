// Package api exposes the benchmark over HTTP: challenge retrieval and
// generation, submission grading, and leaderboard queries. The core never
// opens ports itself; this surface is glue over internal/challenge,
// internal/grade and internal/store.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/store"
)

// Server handles HTTP requests.
type Server struct {
	db         *store.SQLiteDB
	challenges *challenge.Store
}

// NewServer creates a new API server.
func NewServer(db *store.SQLiteDB, challenges *challenge.Store) *Server {
	return &Server{db: db, challenges: challenges}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/challenges/{bucket}", s.handleGetChallenge)
	r.Post("/challenges/{bucket}", s.handleEnsureChallenge)
	r.Post("/grade", s.handleGrade)
	r.Get("/leaderboard/{prefix}", s.handleLeaderboard)

	return r
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
