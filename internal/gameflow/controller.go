// Package gameflow drives a room through WAITING, PLAYING and FINISHED. Every
// state change happens under the room's lock; persistence and broadcasts
// happen after it is released.
package gameflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/logger"
	"payoffquiz/internal/metrics"
	"payoffquiz/internal/questions"
	"payoffquiz/internal/rooms"
	"payoffquiz/internal/scoring"
	"payoffquiz/internal/timers"
)

// Reason says what triggered an advance.
type Reason string

const (
	ReasonTimeout      = Reason("timeout")
	ReasonAllSubmitted = Reason("all_submitted")
	ReasonForced       = Reason("forced")
)

// ResultStore is the durable side of a game. Live-play writes may fail
// without stopping the game; the final save may not.
type ResultStore interface {
	RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error
	SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error
}

// Publisher delivers room snapshots to connected clients, best effort.
type Publisher interface {
	Publish(code string, snap gamedata.Snapshot) error
	Closed(code string) error
}

// QuestionSource draws the question list for a game.
type QuestionSource interface {
	Draw(players, slots int) []questions.Question
}

type Config struct {
	QuestionTime         time.Duration
	DefaultMaxPlayers    int
	DefaultQuestionCount int
	PersistTimeout       time.Duration
}

type Deps struct {
	Rooms     *rooms.Store
	Engine    *scoring.Engine
	Questions QuestionSource
	Results   ResultStore
	Publisher Publisher
	Clock     timers.Clock
	Timers    *timers.Scheduler
	Metrics   *metrics.Metrics
}

type Controller struct {
	cfg       Config
	rooms     *rooms.Store
	engine    *scoring.Engine
	questions QuestionSource
	results   ResultStore
	publisher Publisher
	clock     timers.Clock
	timers    *timers.Scheduler
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func New(cfg Config, d Deps) *Controller {
	if cfg.DefaultMaxPlayers <= 0 {
		cfg.DefaultMaxPlayers = 6
	}
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 10
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 2 * time.Second
	}
	if d.Clock == nil {
		d.Clock = timers.Real()
	}
	if d.Timers == nil {
		d.Timers = timers.NewScheduler(d.Clock)
	}
	if d.Rooms == nil {
		d.Rooms = rooms.NewStore(d.Clock, rooms.DefaultIdleTTL)
	}
	if d.Results == nil {
		d.Results = NopResults{}
	}
	c := &Controller{
		cfg:       cfg,
		rooms:     d.Rooms,
		engine:    d.Engine,
		questions: d.Questions,
		results:   d.Results,
		publisher: d.Publisher,
		clock:     d.Clock,
		timers:    d.Timers,
		metrics:   d.Metrics,
		log:       logger.Component("gameflow"),
	}
	c.rooms.OnRemove(c.roomRemoved)
	return c
}

// Rooms exposes the room registry the controller works on.
func (c *Controller) Rooms() *rooms.Store {
	return c.rooms
}

func (c *Controller) roomRemoved(code string) {
	c.timers.Cancel(code)
	c.metrics.RoomsChanged(-1)
	if c.publisher != nil {
		if err := c.publisher.Closed(code); err != nil {
			c.log.Warn().Err(err).Str("room", code).Msg("room close not broadcast")
		}
	}
	c.log.Info().Str("room", code).Msg("room removed")
}

func (c *Controller) publish(snap gamedata.Snapshot) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(snap.Code, snap); err != nil {
		c.log.Warn().Err(err).Str("room", snap.Code).Msg("snapshot not broadcast")
	}
}

// recordSubmissions hands answers to the result store. Failures are logged
// and counted, never returned.
func (c *Controller) recordSubmissions(ctx context.Context, recs []gamedata.SubmissionRecord) {
	for _, rec := range recs {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PersistTimeout)
		err := c.results.RecordSubmission(pctx, rec)
		cancel()
		if err != nil {
			c.metrics.PersistFailed("record_submission")
			c.log.Warn().Err(err).Str("room", rec.RoomCode).Str("player", rec.PlayerID).
				Int("index", rec.Index).Msg("submission not persisted")
		}
	}
}

// NopResults is the result store used when no database is configured.
type NopResults struct{}

func (NopResults) RecordSubmission(context.Context, gamedata.SubmissionRecord) error { return nil }
func (NopResults) SaveFinalResult(context.Context, gamedata.FinalResult) error       { return nil }
