package gameflow

import (
	"context"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/questions"
	"payoffquiz/internal/scoring"
)

type mockResults struct {
	mock.Mock
}

func (m *mockResults) RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockResults) SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error {
	return m.Called(ctx, res).Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	snaps  []gamedata.Snapshot
	closed []string
}

func (p *recordingPublisher) Publish(code string, snap gamedata.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snap)
	return nil
}

func (p *recordingPublisher) Closed(code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, code)
	return nil
}

func (p *recordingPublisher) last() gamedata.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snaps) == 0 {
		return gamedata.Snapshot{}
	}
	return p.snaps[len(p.snaps)-1]
}

func (p *recordingPublisher) closedRooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.closed)
}

// staticQuestions hands every game the same list.
type staticQuestions []questions.Question

func (s staticQuestions) Draw(players, slots int) []questions.Question {
	return slices.Clone(s)
}

// countingStrategy gives everyone a point and counts scoring passes per index.
type countingStrategy struct {
	mu       sync.Mutex
	perIndex map[int]int
}

func (s *countingStrategy) ID() string { return "counting" }

func (s *countingStrategy) BaseScores(c *scoring.Context) (map[string]int, error) {
	s.mu.Lock()
	s.perIndex[c.Index]++
	s.mu.Unlock()
	out := make(map[string]int, len(c.Submissions))
	for id := range c.Submissions {
		out[id] = 1
	}
	return out, nil
}

func (s *countingStrategy) count(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perIndex[index]
}
