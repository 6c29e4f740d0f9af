package gameflow

import (
	"context"
	"errors"
	"fmt"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/rooms"
	"payoffquiz/internal/submissions"
)

// CreateRoom registers an empty room. Non-positive limits take the
// configured defaults.
func (c *Controller) CreateRoom(maxPlayers, questionCount int) (string, error) {
	if maxPlayers <= 0 {
		maxPlayers = c.cfg.DefaultMaxPlayers
	}
	if questionCount <= 0 {
		questionCount = c.cfg.DefaultQuestionCount
	}
	room, err := c.rooms.Create(maxPlayers, questionCount, c.cfg.QuestionTime)
	if err != nil {
		return "", err
	}
	c.metrics.RoomsChanged(1)
	c.log.Info().Str("room", room.Code).Int("maxPlayers", maxPlayers).Int("questions", questionCount).
		Msg("room created")
	return room.Code, nil
}

// Join adds a player or spectator. A known player id reconnects instead, in
// any phase. New participants are only accepted while the room is waiting;
// spectators may join at any time.
func (c *Controller) Join(ctx context.Context, code, playerID, name string, spectator bool) (gamedata.Snapshot, error) {
	var snap gamedata.Snapshot
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if p := g.Players.Get(playerID); p != nil {
			if name != "" {
				p.Name = name
			}
			g.Players.MarkConnected(playerID)
			c.touch(g)
			snap = g.Snapshot()
			c.log.Info().Str("room", code).Str("player", playerID).Msg("player reconnected")
			return nil
		}
		if !spectator {
			if g.Started() {
				return gameerr.ErrRoomNotWaiting
			}
			if g.Players.CountParticipants() >= g.MaxPlayers {
				return gameerr.ErrRoomFull
			}
		}
		g.Players.Add(playerID, name, spectator)
		c.touch(g)
		snap = g.Snapshot()
		c.log.Info().Str("room", code).Str("player", playerID).Bool("spectator", spectator).Msg("player joined")
		return nil
	})
	if err != nil {
		return gamedata.Snapshot{}, err
	}
	c.publish(snap)
	return snap, nil
}

// StartGame draws the question list for the current participants and opens
// the first question. Starting twice is a conflict and changes nothing.
func (c *Controller) StartGame(ctx context.Context, code string) (gamedata.Snapshot, error) {
	var snap gamedata.Snapshot
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if g.Started() {
			snap = g.Snapshot()
			return gameerr.ErrAlreadyStarted
		}
		n := g.Players.CountParticipants()
		if n == 0 {
			return fmt.Errorf("%w: no players in room", gameerr.ErrInvalidRequest)
		}
		qs := c.questions.Draw(n, g.QuestionCount)
		if len(qs) == 0 {
			return fmt.Errorf("%w: none for %d players", gameerr.ErrNoQuestions, n)
		}

		g.Questions = qs
		g.Phase = gamedata.PhasePlaying
		g.Index = 0
		clear(g.Rounds)
		g.Players.ResetReady()
		c.touch(g)
		c.openQuestion(g)
		snap = g.Snapshot()

		c.log.Info().Str("room", code).Int("players", n).Int("questions", len(qs)).Msg("game started")
		return nil
	})
	if err != nil {
		return snap, err
	}
	c.publish(snap)
	return snap, nil
}

// Leave removes a player from a waiting or finished room and marks them
// disconnected during play, so their score and defaults still count. When no
// one is left connected the room is dissolved and Leave returns nil.
func (c *Controller) Leave(ctx context.Context, code, playerID string) (*gamedata.Snapshot, error) {
	var (
		snap      gamedata.Snapshot
		dissolved bool
		complete  bool
		pos       gamedata.Position
	)
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if g.Players.Get(playerID) == nil {
			return fmt.Errorf("%w: %s", gameerr.ErrPlayerNotFound, playerID)
		}
		if g.Phase == gamedata.PhasePlaying {
			g.Players.MarkDisconnected(playerID, c.clock.Now())
		} else {
			g.Players.Remove(playerID)
		}
		c.touch(g)
		c.log.Info().Str("room", code).Str("player", playerID).Msg("player left")

		if !anyoneConnected(g) {
			dissolved = true
			c.rooms.Delete(code)
			return nil
		}
		// The leaver may have been the last one the question was waiting on.
		complete = g.Halted == nil && submissions.AllSubmitted(g)
		pos = g.Position()
		snap = g.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dissolved {
		return nil, nil
	}
	c.publish(snap)
	if complete {
		next, err := c.advance(ctx, code, ReasonAllSubmitted, true, &pos)
		if next.Code != "" {
			snap = next
		}
		if errors.Is(err, gameerr.ErrTransientPersistence) {
			return &snap, err
		}
	}
	return &snap, nil
}

func (c *Controller) Snapshot(code string) (gamedata.Snapshot, error) {
	var snap gamedata.Snapshot
	err := c.rooms.With(code, func(r *rooms.Room) error {
		snap = r.Game.Snapshot()
		return nil
	})
	return snap, err
}

func (c *Controller) touch(g *gamedata.Game) {
	g.LastActive = c.clock.Now()
}

func anyoneConnected(g *gamedata.Game) bool {
	for _, p := range g.Players.GetList() {
		if p.Connected {
			return true
		}
	}
	return false
}
