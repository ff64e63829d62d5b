package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"pocket/internal/api"
	"pocket/internal/store"
)

// Server exposes the session service over HTTP. Scoring authority stays
// with the same code path the client falls back to; the server only
// recomputes, persists and aggregates.
type Server struct {
	provider *api.Local
	store    *store.Store
}

func New(provider *api.Local, st *store.Store) *Server {
	return &Server{provider: provider, store: st}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/timing/start", s.handleStart)
	mux.HandleFunc("POST /api/timing/complete", s.handleComplete)
	mux.HandleFunc("GET /api/timing/history", s.handleHistory)
	mux.HandleFunc("GET /api/timing/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); nil != err {
			log.Debug().Err(err).Msg("health write failed")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return logRequests(c.Handler(mux))
}

func (s *Server) ListenAndServe(addr string) error {
	log.Info().Str("addr", addr).Msg("session service listening")
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); nil != err {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.provider.Start(r.Context(), req)
	if nil != err {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req api.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); nil != err {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.provider.Complete(r.Context(), req)
	if errors.Is(err, api.ErrSessionNotFound) {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}
	if nil != err {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); nil == err && n > 0 {
			limit = n
		}
	}
	records, err := s.store.History(limit, r.URL.Query().Get("game_mode"))
	if nil != err {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": records})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	scores, err := s.store.Leaderboard(r.URL.Query().Get("game_mode"))
	if nil != err {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"highScores": scores})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); nil != err {
		log.Debug().Err(err).Msg("response encode failed")
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
