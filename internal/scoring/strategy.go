package scoring

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"payoffquiz/internal/buffs"
	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/players"
	"payoffquiz/internal/questions"
)

// Strategy turns the answers to one question into base scores.
type Strategy interface {
	ID() string
	BaseScores(c *Context) (map[string]int, error)
}

// RoundStrategy is a strategy played over several rounds of the same question.
type RoundStrategy interface {
	Strategy
	RoundScores(c *Context, round int) (map[string]int, error)
}

// BuffGranter hands out buffs after base scores are known. Granted buffs
// apply from the next scoring event on.
type BuffGranter interface {
	GrantBuffs(c *Context, base map[string]int)
}

// Context is what a strategy sees of the room while it scores.
type Context struct {
	Question    questions.Question
	Index       int
	Round       int
	TotalRounds int
	Submissions map[string]string
	// Totals are the cumulative scores before this pass.
	Totals map[string]int

	players map[string]*players.Player
	grants  map[string][]buffs.Buff
}

// PlayerIDs returns the answering players in a stable order.
func (c *Context) PlayerIDs() []string {
	ids := make([]string, 0, len(c.Submissions))
	for id := range c.Submissions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Context) Buffs(playerID string) []buffs.Buff {
	if p := c.players[playerID]; p != nil {
		return slices.Clone(p.Buffs)
	}
	return nil
}

// History returns the choices the player made earlier under this strategy.
func (c *Context) History(playerID string) []string {
	if p := c.players[playerID]; p != nil {
		return slices.Clone(p.Scratch[c.Question.Strategy])
	}
	return nil
}

// Remember appends choice to the player's history for this strategy.
func (c *Context) Remember(playerID, choice string) {
	if p := c.players[playerID]; p != nil {
		if p.Scratch == nil {
			p.Scratch = make(map[string][]string)
		}
		p.Scratch[c.Question.Strategy] = append(p.Scratch[c.Question.Strategy], choice)
	}
}

func (c *Context) Grant(playerID string, b buffs.Buff) {
	if _, ok := c.players[playerID]; !ok {
		return
	}
	if b.Source == "" {
		b.Source = c.Question.Strategy
	}
	c.grants[playerID] = append(c.grants[playerID], b)
}

type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry(ss ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range ss {
		r.Register(s)
	}
	return r
}

func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.ID()] = s
}

func (r *Registry) Lookup(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", gameerr.ErrStrategyNotFound, id)
	}
	return s, nil
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
