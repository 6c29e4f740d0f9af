package players

import (
	"time"

	"payoffquiz/internal/buffs"
)

type Player struct {
	ID        string
	Name      string
	Color     string
	Spectator bool
	Score     int
	Ready     bool
	Buffs     []buffs.Buff
	// Scratch holds per-strategy history, keyed by strategy id.
	Scratch        map[string][]string
	Connected      bool
	DisconnectedAt time.Time
	JoinedAt       time.Time
}

// Active reports whether the player is expected to answer questions.
func (p *Player) Active() bool {
	return !p.Spectator && p.Connected
}

// View is a copy of a player that is safe to hand out of the room lock.
type View struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	Spectator bool         `json:"spectator"`
	Score     int          `json:"score"`
	Ready     bool         `json:"ready"`
	Connected bool         `json:"connected"`
	Buffs     []buffs.Buff `json:"buffs,omitempty"`
}

func (p *Player) View() View {
	v := View{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Spectator: p.Spectator,
		Score:     p.Score,
		Ready:     p.Ready,
		Connected: p.Connected,
	}
	if len(p.Buffs) > 0 {
		v.Buffs = append([]buffs.Buff(nil), p.Buffs...)
	}
	return v
}
