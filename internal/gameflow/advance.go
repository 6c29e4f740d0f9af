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

// SubmitAnswer records a player's answer to the active question. When the
// answer completes the question, or force is set, the room advances right
// away with defaults for everyone still missing, and the returned snapshot
// shows the next question. If that advance finishes the game and the result
// cannot be saved, the snapshot comes back with the save error.
func (c *Controller) SubmitAnswer(ctx context.Context, code, playerID, choice string, force bool) (gamedata.Snapshot, error) {
	var (
		snap     gamedata.Snapshot
		rec      gamedata.SubmissionRecord
		complete bool
		pos      gamedata.Position
	)
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if g.Halted != nil {
			return fmt.Errorf("%w: %v", gameerr.ErrRoomHalted, g.Halted)
		}
		entry, err := submissions.Record(g, playerID, choice)
		if err != nil {
			return err
		}
		q, _ := g.Current()
		pos = g.Position()
		rec = gamedata.SubmissionRecord{
			RoomCode:   code,
			PlayerID:   playerID,
			QuestionID: q.ID,
			Index:      pos.Index,
			Round:      pos.Round,
			Choice:     entry.Choice,
			At:         c.clock.Now(),
		}
		c.touch(g)
		complete = force || submissions.AllSubmitted(g)
		snap = g.Snapshot()
		c.log.Debug().Str("room", code).Str("player", playerID).Int("index", pos.Index).
			Int("round", pos.Round).Msg("answer recorded")
		return nil
	})
	if err != nil {
		return gamedata.Snapshot{}, err
	}

	c.recordSubmissions(ctx, []gamedata.SubmissionRecord{rec})
	if !complete {
		c.publish(snap)
		return snap, nil
	}

	reason := ReasonAllSubmitted
	if force {
		reason = ReasonForced
	}
	// Disconnected players do not hold the question up but still get defaults.
	next, err := c.advance(ctx, code, reason, true, &pos)
	if next.Code == "" {
		next = snap
	}
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, gameerr.ErrTransientPersistence):
		// The game finished but its result was not saved.
		return next, err
	default:
		// The answer itself was accepted; a halted room shows in the snapshot.
		c.log.Warn().Err(err).Str("room", code).Msg("advance after submission failed")
		return next, nil
	}
}

// AdvanceQuestion scores the active question and moves the room on. It is
// the operator's entry point; timers and completed questions reach the same
// path with the position they expect.
func (c *Controller) AdvanceQuestion(ctx context.Context, code string, reason Reason, fillDefaults bool) (gamedata.Snapshot, error) {
	return c.advance(ctx, code, reason, fillDefaults, nil)
}

// FinishGame ends the game, fixes the leaderboard and saves the result.
// Finishing a finished room is a no-op. A failed save is returned.
func (c *Controller) FinishGame(ctx context.Context, code string) (gamedata.Snapshot, error) {
	var (
		snap  gamedata.Snapshot
		final *gamedata.FinalResult
	)
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if !g.Started() {
			return gameerr.ErrNotStarted
		}
		final = c.finishLocked(g)
		snap = g.Snapshot()
		return nil
	})
	if err != nil {
		return snap, err
	}
	c.publish(snap)
	if final != nil {
		return snap, c.saveFinal(ctx, *final)
	}
	return snap, nil
}

type advanceResult struct {
	filled []gamedata.SubmissionRecord
	final  *gamedata.FinalResult
}

// advance runs at most one scoring pass per question position. A trigger
// that finds another advance in flight, or a position other than the one it
// was armed for, is dropped and gets the current snapshot. The advance slot
// covers the scoring pass only; triggers for the next position may run while
// this one is still persisting and publishing.
func (c *Controller) advance(ctx context.Context, code string, reason Reason, fill bool, expect *gamedata.Position) (gamedata.Snapshot, error) {
	var (
		snap    gamedata.Snapshot
		out     advanceResult
		claimed bool
	)
	err := c.rooms.With(code, func(r *rooms.Room) error {
		g := r.Game
		if expect != nil && (g.Phase != gamedata.PhasePlaying || g.Position() != *expect) {
			c.dropped(code, reason, "stale")
			snap = g.Snapshot()
			return nil
		}
		if !g.BeginAdvance() {
			c.dropped(code, reason, "in flight")
			snap = g.Snapshot()
			return nil
		}
		defer g.EndAdvance()
		claimed = true

		var err error
		out, err = c.advanceLocked(g, reason, fill)
		snap = g.Snapshot()
		return err
	})
	if err != nil {
		if claimed {
			// A halted room still tells its clients why it stopped.
			c.publish(snap)
		}
		return snap, err
	}
	if !claimed {
		c.publish(snap)
		return snap, nil
	}

	c.metrics.Advance(string(reason))
	c.recordSubmissions(ctx, out.filled)
	c.publish(snap)
	if out.final != nil {
		return snap, c.saveFinal(ctx, *out.final)
	}
	return snap, nil
}

func (c *Controller) advanceLocked(g *gamedata.Game, reason Reason, fill bool) (advanceResult, error) {
	var out advanceResult
	switch {
	case g.Halted != nil:
		return out, fmt.Errorf("%w: %v", gameerr.ErrRoomHalted, g.Halted)
	case !g.Started():
		return out, gameerr.ErrNotStarted
	case g.Finished():
		return out, gameerr.ErrAlreadyFinished
	}
	q, ok := g.Current()
	if !ok {
		return out, gameerr.ErrNoActiveQuestion
	}
	pos := g.Position()
	now := c.clock.Now()

	if fill {
		for _, e := range submissions.FillDefaults(g) {
			out.filled = append(out.filled, gamedata.SubmissionRecord{
				RoomCode:   g.Code,
				PlayerID:   e.PlayerID,
				QuestionID: q.ID,
				Index:      pos.Index,
				Round:      pos.Round,
				Choice:     e.Choice,
				Default:    true,
				At:         now,
			})
		}
	}

	started := c.clock.Now()
	res, err := c.engine.Score(g)
	c.metrics.ObserveScoring(c.clock.Now().Sub(started).Seconds())
	if err != nil {
		c.halt(g, err)
		return out, err
	}
	res.ApplyTo(g)
	g.Players.ResetReady()
	c.touch(g)

	log := c.log.With().Str("room", g.Code).Str("reason", string(reason)).Int("index", pos.Index).Logger()
	if res.ShouldContinue {
		// Same question again: its answers live on in the history only.
		delete(g.Submissions, g.Index)
		c.openQuestion(g)
		log.Info().Int("round", pos.Round).Int("rounds", res.TotalRounds).Msg("round scored")
		return out, nil
	}

	// The question is done with; its round counter and scratch go with it.
	delete(g.Rounds, q.Strategy)
	for _, p := range g.Players.GetList() {
		delete(p.Scratch, q.Strategy)
	}
	g.Index++
	if g.Index >= len(g.Questions) {
		log.Info().Msg("last question scored")
		out.final = c.finishLocked(g)
		return out, nil
	}
	c.openQuestion(g)
	log.Info().Int("next", g.Index).Msg("question scored")
	return out, nil
}

// openQuestion stamps the active question's start and arms its deadline for
// the current position.
func (c *Controller) openQuestion(g *gamedata.Game) {
	g.QuestionStartedAt = c.clock.Now()
	if g.TimeLimit <= 0 {
		return
	}
	code, pos := g.Code, g.Position()
	c.timers.Arm(code, g.TimeLimit, func() {
		if _, err := c.advance(context.Background(), code, ReasonTimeout, true, &pos); err != nil &&
			!errors.Is(err, gameerr.ErrNotFound) {
			c.log.Error().Err(err).Str("room", code).Msg("timeout advance failed")
		}
	})
}

// finishLocked moves the room to FINISHED once. It returns the result to
// save, or nil when the room was already finished.
func (c *Controller) finishLocked(g *gamedata.Game) *gamedata.FinalResult {
	if g.Finished() {
		return nil
	}
	now := c.clock.Now()
	g.Phase = gamedata.PhaseFinished
	g.Leaderboard = g.Rank()
	c.timers.Cancel(g.Code)
	clear(g.Rounds)
	g.Players.ClearGameState()
	c.touch(g)

	final := g.FinalResult(now)
	c.log.Info().Str("room", g.Code).Int("players", len(g.Leaderboard)).Msg("game finished")
	return &final
}

func (c *Controller) saveFinal(ctx context.Context, res gamedata.FinalResult) error {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.PersistTimeout)
	defer cancel()
	if err := c.results.SaveFinalResult(pctx, res); err != nil {
		c.metrics.PersistFailed("save_final_result")
		c.log.Error().Err(err).Str("room", res.RoomCode).Msg("final result not saved")
		return gameerr.Transient(fmt.Errorf("saving final result: %w", err))
	}
	return nil
}

// halt stops a room whose question cannot be scored. It stays in PLAYING
// with its timer off until an operator removes it.
func (c *Controller) halt(g *gamedata.Game, err error) {
	g.Halted = err
	c.timers.Cancel(g.Code)
	c.log.Error().Err(err).Str("room", g.Code).Int("index", g.Index).Msg("room halted")
}

func (c *Controller) dropped(code string, reason Reason, why string) {
	c.metrics.Dropped()
	c.log.Debug().Str("room", code).Str("reason", string(reason)).Str("why", why).Msg("advance dropped")
}
