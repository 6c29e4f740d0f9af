package db

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]gamedata.SubmissionRecord
	direct  []gamedata.SubmissionRecord
	saved   []gamedata.FinalResult
	err     error
}

func (w *fakeWriter) RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.direct = append(w.direct, rec)
	return w.err
}

func (w *fakeWriter) BatchRecordSubmissions(ctx context.Context, recs []gamedata.SubmissionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, slices.Clone(recs))
	return w.err
}

func (w *fakeWriter) SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved = append(w.saved, res)
	return w.err
}

func (w *fakeWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func rec(player string, index int) gamedata.SubmissionRecord {
	return gamedata.SubmissionRecord{RoomCode: "ABCD", PlayerID: player, QuestionID: "q", Index: index, Round: 1, Choice: "A"}
}

func TestSubmissionBuffer_FlushesFullBatch(t *testing.T) {
	w := &fakeWriter{}
	b := NewSubmissionBuffer(w, 10)
	b.batchSize = 3
	b.flushEvery = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	for i := range 3 {
		require.NoError(t, b.RecordSubmission(ctx, rec("p1", i)))
	}

	assert.Eventually(t, func() bool { return w.written() == 3 }, time.Second, 5*time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.batches, 1)
	assert.Equal(t, []int{0, 1, 2}, []int{w.batches[0][0].Index, w.batches[0][1].Index, w.batches[0][2].Index})
}

func TestSubmissionBuffer_FlushesOnTick(t *testing.T) {
	w := &fakeWriter{}
	b := NewSubmissionBuffer(w, 10)
	b.flushEvery = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.NoError(t, b.RecordSubmission(ctx, rec("p1", 0)))

	assert.Eventually(t, func() bool { return w.written() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubmissionBuffer_DrainsOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	b := NewSubmissionBuffer(w, 10)
	b.flushEvery = time.Hour
	for i := range 4 {
		require.NoError(t, b.RecordSubmission(context.Background(), rec("p1", i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Run(ctx)

	assert.Equal(t, 4, w.written())
}

func TestSubmissionBuffer_FullBufferWritesDirectly(t *testing.T) {
	w := &fakeWriter{}
	b := NewSubmissionBuffer(w, 1)
	require.NoError(t, b.RecordSubmission(context.Background(), rec("p1", 0)))

	require.NoError(t, b.RecordSubmission(context.Background(), rec("p2", 0)))

	require.Len(t, w.direct, 1)
	assert.Equal(t, "p2", w.direct[0].PlayerID)
	assert.Zero(t, w.written(), "the queued record waits for Run")
}

func TestSubmissionBuffer_FullBufferWriteErrorIsTransient(t *testing.T) {
	w := &fakeWriter{}
	b := NewSubmissionBuffer(w, 1)
	require.NoError(t, b.RecordSubmission(context.Background(), rec("p1", 0)))
	w.err = errors.New("db down")

	err := b.RecordSubmission(context.Background(), rec("p2", 0))

	assert.ErrorIs(t, err, ErrBufferFull)
	assert.ErrorIs(t, err, gameerr.ErrTransientPersistence)
}

func TestSubmissionBuffer_FinalResultGoesStraightThrough(t *testing.T) {
	w := &fakeWriter{err: errors.New("db down")}
	b := NewSubmissionBuffer(w, 1)

	err := b.SaveFinalResult(context.Background(), gamedata.FinalResult{RoomCode: "ABCD"})

	assert.EqualError(t, err, "db down")
	require.Len(t, w.saved, 1)
	assert.Equal(t, "ABCD", w.saved[0].RoomCode)
}

func TestSubmissionBuffer_WriteErrorKeepsRunning(t *testing.T) {
	w := &fakeWriter{err: errors.New("db down")}
	b := NewSubmissionBuffer(w, 10)
	b.batchSize = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.NoError(t, b.RecordSubmission(ctx, rec("p1", 0)))
	require.NoError(t, b.RecordSubmission(ctx, rec("p1", 1)))

	assert.Eventually(t, func() bool { return w.written() == 2 }, time.Second, 5*time.Millisecond)
}
