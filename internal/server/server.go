// Package server exposes the game over HTTP: health and leaderboard
// endpoints, the frame stream, landmark ingest and the static renderer.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/slicecam/internal/capture"
	"github.com/ayusman/slicecam/internal/detector"
	"github.com/ayusman/slicecam/internal/game"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/store"
)

// Leaderboard limits for GET /api/scores.
const (
	DefaultScoresLimit = 10
	MaxScoresLimit     = 100
)

// Game is the part of the running app the server talks to.
type Game interface {
	Frame() game.Frame
	Subscribe() (<-chan game.Frame, func())
	TogglePause() bool
	PushLandmarks(hands []detector.HandLandmarks)
	AddPointerPoint(x, y float64)
	ClearPointer()
	Resize(width, height float64)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Game      Game
	// Camera enables the MJPEG preview when hands come from a local camera.
	Camera capture.Camera
	// Logging turns on the per-request access log.
	Logging bool
}

// Server routes requests for the game.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	if s.config.Logging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Store != nil {
		r.Get("/api/scores", s.handleScores)
	}

	if s.config.Game != nil {
		r.Get("/api/game", s.handleFrame)
		r.Post("/api/game/pause", s.handlePause)
		r.Handle("/api/game/stream", NewFrameStreamHandler(s.config.Game))
		r.Handle("/api/landmarks", NewLandmarksHandler(s.config.Game))
	}

	if s.config.Camera != nil {
		r.Handle("/api/camera", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type scoresResponse struct {
	Count   int             `json:"count"`
	Best    *store.Result   `json:"best,omitempty"`
	Results []*store.Result `json:"results"`
}

// handleScores lists the leaderboard, best first.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := DefaultScoresLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxScoresLimit)
	}

	repo := s.config.Store.Results()
	results, err := repo.Top(limit)
	if err != nil {
		log.Printf("Failed to list results: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	count, err := repo.Count()
	if err != nil {
		log.Printf("Failed to count results: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count results")
		return
	}

	resp := scoresResponse{Count: count, Results: results}
	if resp.Results == nil {
		resp.Results = []*store.Result{}
	}
	best, err := repo.Best()
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		log.Printf("Failed to load best result: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load best result")
		return
	default:
		resp.Best = best
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Game.Frame())
}

type pauseResponse struct {
	Changed bool          `json:"changed"`
	Phase   session.Phase `json:"phase"`
}

// handlePause flips Playing and Paused. Outside those phases nothing changes
// and the response says so with 409.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	phase := s.config.Game.Frame().Phase
	if !s.config.Game.TogglePause() {
		writeJSON(w, http.StatusConflict, pauseResponse{Phase: phase})
		return
	}

	// The published frame lags the toggle by one tick.
	if phase == session.PhasePlaying {
		phase = session.PhasePaused
	} else {
		phase = session.PhasePlaying
	}
	writeJSON(w, http.StatusOK, pauseResponse{Changed: true, Phase: phase})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
