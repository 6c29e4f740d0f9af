package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"payoffquiz/internal/wshub"
)

// handleEvents streams room snapshots as server-sent events until the
// client goes away or the room is removed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	if _, err := s.Game.Snapshot(code); err != nil {
		s.writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	msgChan := s.Events.Subscribe(code)
	defer s.Events.Unsubscribe(code, msgChan)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			flusher.Flush()
		}
	}
}

// handleWS upgrades to a websocket for one player. Snapshots arrive through
// the hub; the client sends {"t":"submit"} messages and gets errors back on
// the same socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	playerID := r.URL.Query().Get("player")
	snap, err := s.Game.Snapshot(code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("room", code).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := wshub.NewClient(code, playerID, conn)
	s.Hub.Register(client)
	defer s.Hub.Unregister(client)
	go client.WritePump(ctx)

	if data, err := json.Marshal(snap); err == nil {
		s.Hub.Reply(client, wshub.ServerMessage{Type: "snapshot", Data: data})
	}

	for {
		var msg wshub.ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		switch msg.Type {
		case "submit":
			s.wsSubmit(ctx, client, msg)
		case "ping":
			s.Hub.Reply(client, wshub.ServerMessage{Type: "pong"})
		default:
			s.Hub.Reply(client, wshub.ServerMessage{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (s *Server) wsSubmit(ctx context.Context, c *wshub.Client, msg wshub.ClientMessage) {
	if c.PlayerID == "" {
		s.Hub.Reply(c, wshub.ServerMessage{Type: "error", Error: "connect with ?player= to submit"})
		return
	}
	if !s.limits.allow(c.Room, c.PlayerID) {
		s.Hub.Reply(c, wshub.ServerMessage{Type: "error", Error: "too many submissions"})
		return
	}
	if _, err := s.Game.SubmitAnswer(ctx, c.Room, c.PlayerID, msg.Choice, msg.Force); err != nil {
		s.Hub.Reply(c, wshub.ServerMessage{Type: "error", Error: err.Error()})
	}
}
