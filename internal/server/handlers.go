package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/gameflow"
)

type createRoomRequest struct {
	MaxPlayers    int `json:"maxPlayers"`
	QuestionCount int `json:"questionCount"`
}

type joinRequest struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Spectator bool   `json:"spectator"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type submitRequest struct {
	PlayerID string `json:"playerId"`
	Choice   string `json:"choice"`
	Force    bool   `json:"force"`
}

type advanceRequest struct {
	FillDefaults *bool `json:"fillDefaults"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch gameerr.Kind(err) {
	case gameerr.ErrNotFound:
		return http.StatusNotFound
	case gameerr.ErrConflict:
		return http.StatusConflict
	case gameerr.ErrInvalidInput:
		return http.StatusBadRequest
	case gameerr.ErrTransientPersistence:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if k := gameerr.Kind(err); k != nil {
		resp.Kind = k.Error()
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body: %v", gameerr.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := s.Game.CreateRoom(req.MaxPlayers, req.QuestionCount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.Game.Snapshot(code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Game.Snapshot(roomCode(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" && req.PlayerID == "" {
		s.writeError(w, r, fmt.Errorf("%w: name is required", gameerr.ErrInvalidRequest))
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}
	snap, err := s.Game.Join(r.Context(), roomCode(r), req.PlayerID, req.Name, req.Spectator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playerId": req.PlayerID, "room": snap})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Game.StartGame(r.Context(), roomCode(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code := roomCode(r)
	if req.PlayerID == "" {
		s.writeError(w, r, fmt.Errorf("%w: playerId is required", gameerr.ErrInvalidRequest))
		return
	}
	if !s.limits.allow(code, req.PlayerID) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many submissions"})
		return
	}
	snap, err := s.Game.SubmitAnswer(r.Context(), code, req.PlayerID, req.Choice, req.Force)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fill := req.FillDefaults == nil || *req.FillDefaults
	snap, err := s.Game.AdvanceQuestion(r.Context(), roomCode(r), gameflow.ReasonForced, fill)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Game.FinishGame(r.Context(), roomCode(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.Game.Leave(r.Context(), roomCode(r), req.PlayerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		s.writeError(w, r, fmt.Errorf("%w: no result store configured", gameerr.ErrNotFound))
		return
	}
	game, err := s.DB.LatestGame(r.Context(), roomCode(r))
	if err != nil {
		if !errors.Is(err, gameerr.ErrNotFound) && !errors.Is(err, context.Canceled) {
			err = gameerr.Transient(err)
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": s.Game.Rooms().Len()})
}
