package questions

import (
	"math/rand"
	"sync"
	"time"
)

// Source draws a fresh question list per game from a fixed catalog.
type Source struct {
	all []Question

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSource(all []Question, seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{all: all, rng: rand.New(rand.NewSource(seed))}
}

// Draw builds a pool for the player count and draws up to slots questions.
func (s *Source) Draw(players, slots int) []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewPool(s.all, players).Draw(slots, s.rng)
}
