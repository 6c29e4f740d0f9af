package players

import (
	"slices"
	"sync"
	"time"

	"payoffquiz/internal/utility"
)

type Store struct {
	mu      sync.Mutex
	players map[string]*Player
	order   []string
}

func NewStore() *Store {
	return &Store{
		players: make(map[string]*Player),
	}
}

func (s *Store) Add(id string, name string, spectator bool) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Name = name
		return p
	}
	player := &Player{
		ID:        id,
		Name:      name,
		Color:     utility.RandomColorHex(),
		Spectator: spectator,
		Connected: true,
		Scratch:   make(map[string][]string),
		JoinedAt:  time.Now(),
	}
	s.players[id] = player
	s.order = append(s.order, id)
	return player
}

func (s *Store) Get(id string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id]
}

// GetList returns every player in join order.
func (s *Store) GetList() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerList := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		playerList = append(playerList, s.players[id])
	}
	return playerList
}

// Participants returns the non-spectators in join order.
func (s *Store) Participants() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		if p := s.players[id]; !p.Spectator {
			list = append(list, p)
		}
	}
	return list
}

// Active returns the connected non-spectators in join order.
func (s *Store) Active() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		if p := s.players[id]; p.Active() {
			list = append(list, p)
		}
	}
	return list
}

func (s *Store) UpdateScore(id string, points int) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Score += points
		return p
	}
	return nil
}

func (s *Store) ResetReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Ready = false
	}
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, e := s.players[id]; !e {
		return false
	}
	delete(s.players, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	return true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Store) CountParticipants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if !p.Spectator {
			n++
		}
	}
	return n
}

func (s *Store) MarkDisconnected(id string, at time.Time) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Connected = false
		p.DisconnectedAt = at
		return p
	}
	return nil
}

func (s *Store) MarkConnected(id string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Connected = true
		p.DisconnectedAt = time.Time{}
		return p
	}
	return nil
}

// ClearGameState drops buffs, strategy scratch data and ready flags. Scores stay.
func (s *Store) ClearGameState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Buffs = nil
		p.Scratch = make(map[string][]string)
		p.Ready = false
	}
}
