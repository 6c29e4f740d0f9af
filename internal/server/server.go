package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"payoffquiz/internal/broadcast"
	"payoffquiz/internal/db"
	"payoffquiz/internal/gameflow"
	"payoffquiz/internal/logger"
	"payoffquiz/internal/rooms"
	"payoffquiz/internal/wshub"
)

type Server struct {
	Game    *gameflow.Controller
	Events  *broadcast.Broadcaster
	Hub     *wshub.Hub
	DB      *db.DB // nil if no database configured
	Metrics http.Handler

	limits *submitLimits
	log    zerolog.Logger
}

// New wires the HTTP surface onto a controller. Each player may submit
// submitRate answers per second with bursts of submitBurst; their limiters
// are dropped together with the room.
func New(game *gameflow.Controller, events *broadcast.Broadcaster, hub *wshub.Hub, submitRate float64, submitBurst int) *Server {
	s := &Server{
		Game:   game,
		Events: events,
		Hub:    hub,
		limits: newSubmitLimits(submitRate, submitBurst),
		log:    logger.Component("server"),
	}
	game.Rooms().OnRemove(s.limits.forgetRoom)
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{code}", s.handleRoom)
	mux.HandleFunc("POST /rooms/{code}/join", s.handleJoin)
	mux.HandleFunc("POST /rooms/{code}/start", s.handleStart)
	mux.HandleFunc("POST /rooms/{code}/submit", s.handleSubmit)
	mux.HandleFunc("POST /rooms/{code}/advance", s.handleAdvance)
	mux.HandleFunc("POST /rooms/{code}/finish", s.handleFinish)
	mux.HandleFunc("POST /rooms/{code}/leave", s.handleLeave)
	mux.HandleFunc("GET /rooms/{code}/events", s.handleEvents)
	mux.HandleFunc("GET /rooms/{code}/ws", s.handleWS)
	mux.HandleFunc("GET /results/{code}", s.handleResults)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	return mux
}

// roomCode reads the {code} path segment. Malformed codes come back empty
// and so match no room.
func roomCode(r *http.Request) string {
	code, ok := rooms.NormalizeCode(r.PathValue("code"))
	if !ok {
		return ""
	}
	return code
}
