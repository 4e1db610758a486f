// Package practice embeds a local quest service so the client can play
// offline. It serves the same three endpoints as the remote service, seeded
// from a quest pack.
package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Skelligg/htf-collide/internal/packs"
	"github.com/Skelligg/htf-collide/internal/quest"
	"github.com/Skelligg/htf-collide/internal/telemetry"
)

type missionKey struct {
	problemID int64
	missionID int64
}

type Server struct {
	pack   packs.Pack
	secret int
	logger *telemetry.Logger
	router chi.Router

	mu       sync.Mutex
	solved   map[missionKey]bool
	attempts map[missionKey]int

	srv  *http.Server
	addr string
}

type Option func(*Server)

// WithSecret sets the hidden number the brute mission verifies against.
func WithSecret(secret int) Option {
	return func(s *Server) { s.secret = secret }
}

func WithLogger(logger *telemetry.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func New(pack packs.Pack, opts ...Option) *Server {
	s := &Server{
		pack:     pack,
		secret:   55,
		logger:   telemetry.Nop(),
		solved:   map[missionKey]bool{},
		attempts: map[missionKey]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/quest", s.handleQuest)
	r.Get("/api/problem/{id}", s.handleProblem)
	r.Post("/api/problem/verify", s.handleVerify)
	s.router = r
	return s
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr ("127.0.0.1:0" picks a free port) and serves in the
// background until Shutdown.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("practice server: listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("practice.serve_failed", map[string]any{"error": err.Error()})
		}
	}()
	s.logger.Info("practice.started", map[string]any{"addr": s.addr})
	return nil
}

// BaseURL returns the URL clients should point at once Start has run.
func (s *Server) BaseURL() string { return "http://" + s.addr }

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleQuest(w http.ResponseWriter, r *http.Request) {
	out := make([]quest.ProblemSummary, 0, len(s.pack.Problems))
	for _, p := range s.pack.Problems {
		out = append(out, quest.ProblemSummary{
			ProblemID:   quest.ProblemID(p.ProblemID),
			Name:        p.Name,
			Description: p.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProblem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}
	prob, ok := s.findProblem(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown problem")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	missions := make([]quest.Mission, 0, len(prob.Missions))
	allSolved := len(prob.Missions) > 0
	for _, m := range prob.Missions {
		key := missionKey{problemID: prob.ProblemID, missionID: m.MissionID}
		solved := s.solved[key]
		if !solved {
			allSolved = false
		}
		missions = append(missions, quest.Mission{
			ID:                quest.MissionID(m.MissionID),
			Name:              m.Name,
			Objective:         m.Objective,
			Parameters:        m.Parameters,
			Difficulty:        m.Difficulty,
			RemainingAttempts: s.remainingLabel(m, key),
			Solved:            solved,
			Effect:            m.Effect,
		})
	}
	writeJSON(w, http.StatusOK, quest.Problem{
		Name:        prob.Name,
		Description: prob.Description,
		Solved:      allSolved,
		Score:       prob.Score,
		BadgeURL:    prob.BadgeURL,
		Missions:    missions,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req quest.VerifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prob, ok := s.findProblem(int64(req.ProblemID))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown problem")
		return
	}
	var mission *packs.Mission
	for i := range prob.Missions {
		if prob.Missions[i].MissionID == int64(req.MissionID) {
			mission = &prob.Missions[i]
			break
		}
	}
	if mission == nil {
		writeError(w, http.StatusNotFound, "unknown mission")
		return
	}

	key := missionKey{problemID: prob.ProblemID, missionID: mission.MissionID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mission.MaxAttempts > 0 && s.attempts[key] >= mission.MaxAttempts && !s.solved[key] {
		// Attempts exhausted: every further submission reads as wrong.
		writeJSON(w, http.StatusOK, false)
		return
	}
	s.attempts[key]++

	var verdict bool
	if mission.Effect == "brute" {
		n, err := strconv.Atoi(req.Answer)
		verdict = err == nil && n == s.secret
	} else {
		verdict = checkAnswer(mission.Answer, req.Answer)
	}
	if verdict {
		s.solved[key] = true
	}
	s.logger.Info("practice.verify", map[string]any{
		"problem": prob.ProblemID,
		"mission": mission.MissionID,
		"correct": verdict,
	})
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) findProblem(id int64) (packs.Problem, bool) {
	for _, p := range s.pack.Problems {
		if p.ProblemID == id {
			return p, true
		}
	}
	return packs.Problem{}, false
}

func (s *Server) remainingLabel(m packs.Mission, key missionKey) string {
	if m.MaxAttempts <= 0 {
		return "unlimited"
	}
	left := m.MaxAttempts - s.attempts[key]
	if left < 0 {
		left = 0
	}
	return strconv.Itoa(left)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
