package rooms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/logger"
	"payoffquiz/internal/timers"
)

const DefaultIdleTTL = 1 * time.Hour

type Room struct {
	Code string
	Game *gamedata.Game
}

// Store is the registry of live rooms. The map lock only guards lookup,
// insert and remove; a room's Game is read and written under that room's own
// lock, taken through With.
type Store struct {
	clock timers.Clock
	ttl   time.Duration

	mu       sync.RWMutex
	rooms    map[string]*Room
	onRemove []func(code string)

	locks lockTable
}

func NewStore(clock timers.Clock, idleTTL time.Duration) *Store {
	if clock == nil {
		clock = timers.Real()
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		clock: clock,
		ttl:   idleTTL,
		rooms: make(map[string]*Room),
	}
}

// OnRemove registers fn to run after a room is deleted or expires.
func (s *Store) OnRemove(fn func(code string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemove = append(s.onRemove, fn)
}

func (s *Store) Create(maxPlayers, questionCount int, timeLimit time.Duration) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}
		room := &Room{
			Code: code,
			Game: gamedata.NewGame(code, maxPlayers, questionCount, timeLimit, s.clock.Now()),
		}
		s.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (s *Store) Get(code string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[code]
}

// With runs fn while holding the room's lock. It fails with ErrRoomNotFound
// when the room does not exist or was removed while waiting for the lock.
func (s *Store) With(code string, fn func(*Room) error) error {
	room := s.Get(code)
	if room == nil {
		return gameerr.ErrRoomNotFound
	}
	l := s.locks.get(code, func() bool { return s.Get(code) == room })
	if l == nil {
		return gameerr.ErrRoomNotFound
	}
	l.Lock()
	defer l.Unlock()
	if s.Get(code) != room {
		return gameerr.ErrRoomNotFound
	}
	return fn(room)
}

// Delete removes the room and runs the remove hooks. It is safe to call from
// inside With.
func (s *Store) Delete(code string) bool {
	s.mu.Lock()
	_, ok := s.rooms[code]
	delete(s.rooms, code)
	hooks := append([]func(string){}, s.onRemove...)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.locks.remove(code)
	for _, fn := range hooks {
		fn(code)
	}
	return true
}

func (s *Store) List() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Sweep deletes rooms idle for longer than the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	removed := 0
	for _, r := range s.List() {
		var stale bool
		err := s.With(r.Code, func(room *Room) error {
			stale = now.Sub(room.Game.LastActive) > s.ttl
			if stale {
				s.Delete(room.Code)
			}
			return nil
		})
		if err == nil && stale {
			removed++
		}
	}
	if removed > 0 {
		log := logger.Component("rooms")
		log.Info().Int("removed", removed).Msg("swept idle rooms")
	}
	return removed
}

// Run sweeps idle rooms every interval until ctx is done.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
