// Package server is the HTTP surface of the game: one route per action, a
// websocket subscribe route, schema-validated bodies, and a per-session rate
// limit on spawn polls.
package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"semantra.io/internal/game"
	"semantra.io/internal/protocol"
	"semantra.io/internal/transport/ws"
	"semantra.io/internal/tuning"
)

const maxBodyBytes = 16 * 1024

// Limiter entries for rooms nobody polls anymore are swept once the map
// grows past limiterSweepAt, so deleted or abandoned sessions do not pin
// limiters forever.
const (
	limiterSweepAt = 1024
	limiterIdleTTL = time.Hour
)

type sessionLimiter struct {
	lim      *rate.Limiter
	lastPoll time.Time
}

type Server struct {
	engine  *game.Engine
	hub     *ws.Hub
	schemas protocol.Schemas
	tune    tuning.Tuning
	log     *log.Logger

	mu       sync.Mutex
	limiters map[string]*sessionLimiter
}

func New(engine *game.Engine, hub *ws.Hub, schemas protocol.Schemas, tune tuning.Tuning, logger *log.Logger) *Server {
	return &Server{
		engine:   engine,
		hub:      hub,
		schemas:  schemas,
		tune:     tune,
		log:      logger,
		limiters: make(map[string]*sessionLimiter),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.handleCreate).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}", s.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{code}/join", s.action(s.join)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/ready", s.action(s.ready)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/leave", s.action(s.leave)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/start", s.action(s.start)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/guess", s.action(s.guess)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/hint", s.action(s.hintAction)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/hazard-hit", s.action(s.hazardHit)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/gem-pickup", s.action(s.gemPickup)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/spawn-poll", s.action(s.spawnPoll)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/advance", s.action(s.advance)).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{code}/ws", s.handleSubscribe).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// actionBody is the one inbound shape all action routes share; the schema
// rejects unknown fields and enforces per-route requirements are checked in
// the handlers.
type actionBody struct {
	PlayerID     string `json:"player_id,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	HostNickname string `json:"host_nickname,omitempty"`
	TargetID     string `json:"target_id,omitempty"`
	HazardID     string `json:"hazard_id,omitempty"`
	GemID        string `json:"gem_id,omitempty"`
}

type reply struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type actionFunc func(r *http.Request, code string, body actionBody) (any, error)

func (s *Server) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		body, ok := s.decodeBody(w, r)
		if !ok {
			return
		}
		data, err := fn(r, code, body)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply{Accepted: true, Data: data})
	}
}

// decodeBody reads, schema-validates, and decodes an action body.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (actionBody, bool) {
	var body actionBody
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeCode(w, protocol.ErrBadRequest, "read body: "+err.Error())
		return body, false
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		s.writeCode(w, protocol.ErrBadRequest, "malformed json")
		return body, false
	}
	if s.schemas.Action != nil {
		if err := s.schemas.Action.Validate(loose); err != nil {
			s.writeCode(w, protocol.ErrBadRequest, "schema: "+err.Error())
			return body, false
		}
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeCode(w, protocol.ErrBadRequest, "malformed action body")
		return body, false
	}
	return body, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	sess, host, err := s.engine.Create(r.Context(), body.HostNickname)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply{Accepted: true, Data: struct {
		Session  protocol.SessionView `json:"session"`
		PlayerID string               `json:"player_id"`
	}{sess.View(time.Now()), host.ID}})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	sess, err := s.engine.State(r.Context(), code)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply{Accepted: true, Data: sess.View(time.Now())})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, err := s.engine.State(r.Context(), code); err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.HandleSubscribe(w, r, code)
}

func (s *Server) join(r *http.Request, code string, body actionBody) (any, error) {
	sess, p, err := s.engine.Join(r.Context(), code, body.Nickname)
	if err != nil {
		return nil, err
	}
	return struct {
		Session  protocol.SessionView `json:"session"`
		PlayerID string               `json:"player_id"`
	}{sess.View(time.Now()), p.ID}, nil
}

func (s *Server) ready(r *http.Request, code string, body actionBody) (any, error) {
	sess, err := s.engine.Ready(r.Context(), code, body.PlayerID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

func (s *Server) leave(r *http.Request, code string, body actionBody) (any, error) {
	if err := s.engine.Leave(r.Context(), code, body.PlayerID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) start(r *http.Request, code string, body actionBody) (any, error) {
	sess, err := s.engine.Start(r.Context(), code, body.PlayerID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

func (s *Server) guess(r *http.Request, code string, body actionBody) (any, error) {
	return s.engine.Guess(r.Context(), code, body.PlayerID, body.TargetID)
}

func (s *Server) hintAction(r *http.Request, code string, body actionBody) (any, error) {
	text, err := s.engine.Hint(r.Context(), code, body.PlayerID)
	if err != nil {
		return nil, err
	}
	return struct {
		Hint string `json:"hint"`
	}{text}, nil
}

func (s *Server) hazardHit(r *http.Request, code string, body actionBody) (any, error) {
	sess, err := s.engine.HazardHit(r.Context(), code, body.PlayerID, body.HazardID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

func (s *Server) gemPickup(r *http.Request, code string, body actionBody) (any, error) {
	sess, err := s.engine.GemPickup(r.Context(), code, body.PlayerID, body.GemID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

func (s *Server) spawnPoll(r *http.Request, code string, body actionBody) (any, error) {
	if !s.pollLimiter(code).Allow() {
		return nil, game.Errf(protocol.ErrRateLimit, "spawn polls for %s are rate limited", code)
	}
	sess, err := s.engine.SpawnPoll(r.Context(), code, body.PlayerID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

func (s *Server) advance(r *http.Request, code string, body actionBody) (any, error) {
	sess, err := s.engine.Advance(r.Context(), code, body.PlayerID)
	if err != nil {
		return nil, err
	}
	return sess.View(time.Now()), nil
}

// pollLimiter returns the session's spawn-poll limiter. Over-limit polls are
// refused before any store access.
func (s *Server) pollLimiter(code string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if len(s.limiters) > limiterSweepAt {
		for c, e := range s.limiters {
			if now.Sub(e.lastPoll) > limiterIdleTTL {
				delete(s.limiters, c)
			}
		}
	}
	e, ok := s.limiters[code]
	if !ok {
		e = &sessionLimiter{lim: rate.NewLimiter(rate.Limit(s.tune.PollRatePerSec), s.tune.PollBurst)}
		s.limiters[code] = e
	}
	e.lastPoll = now
	return e.lim
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := game.CodeOf(err)
	if code == protocol.ErrInternal {
		s.log.Printf("internal error: %v", err)
	}
	writeJSON(w, statusFor(code), reply{Accepted: false, Code: code, Message: err.Error()})
}

func (s *Server) writeCode(w http.ResponseWriter, code, msg string) {
	writeJSON(w, statusFor(code), reply{Accepted: false, Code: code, Message: msg})
}

func statusFor(code string) int {
	switch code {
	case protocol.ErrBadRequest:
		return http.StatusBadRequest
	case protocol.ErrNotFound:
		return http.StatusNotFound
	case protocol.ErrExists, protocol.ErrInvalidPhase, protocol.ErrAlreadyDecided, protocol.ErrExhausted:
		return http.StatusConflict
	case protocol.ErrNotHost:
		return http.StatusForbidden
	case protocol.ErrRateLimit:
		return http.StatusTooManyRequests
	case protocol.ErrConflict:
		return http.StatusServiceUnavailable
	case protocol.ErrCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
