package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/logger"
)

const (
	DefaultBufferSize = 1024
	defaultBatchSize  = 50
	defaultFlushEvery = 500 * time.Millisecond
)

var ErrBufferFull = fmt.Errorf("%w: submission buffer full", gameerr.ErrTransientPersistence)

// Writer is the storage a SubmissionBuffer flushes into.
type Writer interface {
	RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error
	BatchRecordSubmissions(ctx context.Context, recs []gamedata.SubmissionRecord) error
	SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error
}

// SubmissionBuffer queues live answers and writes them in batches, so the
// game never waits on the database while a question is open. Final results
// go straight through.
type SubmissionBuffer struct {
	store      Writer
	buffer     chan gamedata.SubmissionRecord
	batchSize  int
	flushEvery time.Duration
	log        zerolog.Logger
}

func NewSubmissionBuffer(store Writer, size int) *SubmissionBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &SubmissionBuffer{
		store:      store,
		buffer:     make(chan gamedata.SubmissionRecord, size),
		batchSize:  defaultBatchSize,
		flushEvery: defaultFlushEvery,
		log:        logger.Component("db"),
	}
}

// RecordSubmission enqueues rec without blocking. When the queue is full the
// record is written directly instead.
func (b *SubmissionBuffer) RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error {
	select {
	case b.buffer <- rec:
		return nil
	default:
	}
	if err := b.store.RecordSubmission(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrBufferFull, err)
	}
	b.log.Warn().Str("room", rec.RoomCode).Msg("submission buffer full, wrote directly")
	return nil
}

func (b *SubmissionBuffer) SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error {
	return b.store.SaveFinalResult(ctx, res)
}

// Run flushes queued submissions every batch or tick until ctx is done, then
// writes whatever is left.
func (b *SubmissionBuffer) Run(ctx context.Context) {
	ticker := time.NewTicker(b.flushEvery)
	defer ticker.Stop()

	batch := make([]gamedata.SubmissionRecord, 0, b.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := b.store.BatchRecordSubmissions(ctx, batch); err != nil {
			b.log.Error().Err(err).Int("count", len(batch)).Msg("submission batch not written")
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-b.buffer:
			batch = append(batch, rec)
			if len(batch) >= b.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			for {
				select {
				case rec := <-b.buffer:
					batch = append(batch, rec)
				default:
					flush(context.WithoutCancel(ctx))
					return
				}
			}
		}
	}
}
