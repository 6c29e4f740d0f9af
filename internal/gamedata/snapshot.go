package gamedata

import (
	"time"

	"payoffquiz/internal/players"
	"payoffquiz/internal/questions"
)

// Snapshot is an immutable copy of a room taken under its lock.
type Snapshot struct {
	Code          string            `json:"code"`
	Phase         Phase             `json:"phase"`
	Index         int               `json:"index"`
	QuestionCount int               `json:"questionCount"`
	MaxPlayers    int               `json:"maxPlayers"`
	Question      *questions.Public `json:"question,omitempty"`
	Round         int               `json:"round"`
	TotalRounds   int               `json:"totalRounds"`
	StartedAt     time.Time         `json:"questionStartedAt,omitzero"`
	Deadline      time.Time         `json:"deadline,omitzero"`
	Players       []players.View    `json:"players"`
	Submitted     []string          `json:"submitted"`
	LastRound     *RoundRecord      `json:"lastRound,omitempty"`
	Leaderboard   []Standing        `json:"leaderboard,omitempty"`
	Halted        string            `json:"halted,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Code:          g.Code,
		Phase:         g.Phase,
		Index:         g.Index,
		QuestionCount: g.QuestionCount,
		MaxPlayers:    g.MaxPlayers,
		Round:         g.CurrentRound(),
		TotalRounds:   1,
		Submitted:     []string{},
	}
	if g.Started() {
		s.QuestionCount = len(g.Questions)
	}
	if q, ok := g.Current(); ok {
		pub := q.Public()
		s.Question = &pub
		s.TotalRounds = q.Rounds()
		s.StartedAt = g.QuestionStartedAt
		if g.TimeLimit > 0 {
			s.Deadline = g.QuestionStartedAt.Add(g.TimeLimit)
		}
		for _, p := range g.Players.GetList() {
			if _, ok := g.Submissions[g.Index][p.ID]; ok {
				s.Submitted = append(s.Submitted, p.ID)
			}
		}
	}
	for _, p := range g.Players.GetList() {
		s.Players = append(s.Players, p.View())
	}
	if n := len(g.History); n > 0 {
		last := g.History[n-1]
		s.LastRound = &last
	}
	if len(g.Leaderboard) > 0 {
		s.Leaderboard = append([]Standing(nil), g.Leaderboard...)
	}
	if g.Halted != nil {
		s.Halted = g.Halted.Error()
	}
	return s
}
