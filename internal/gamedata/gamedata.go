package gamedata

import (
	"sort"
	"sync/atomic"
	"time"

	"payoffquiz/internal/players"
	"payoffquiz/internal/questions"
)

type Phase string

const (
	PhaseWaiting  = Phase("WAITING")
	PhasePlaying  = Phase("PLAYING")
	PhaseFinished = Phase("FINISHED")
)

type ScoreDetail struct {
	Base  int `json:"base"`
	Final int `json:"final"`
}

// RoundRecord archives one scoring pass.
type RoundRecord struct {
	Index      int               `json:"index"`
	Round      int               `json:"round"`
	TotalRound int               `json:"totalRounds"`
	QuestionID string            `json:"questionId"`
	Choices    map[string]string `json:"choices"`
	Base       map[string]int    `json:"base"`
	Final      map[string]int    `json:"final"`
}

type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Position identifies one scoring opportunity: a question index and, for
// repeatable questions, the round within it.
type Position struct {
	Index int
	Round int
}

// Game is the state of one room. It is not safe for concurrent use; every
// access goes through the owning room's lock.
type Game struct {
	Code          string
	MaxPlayers    int
	QuestionCount int
	TimeLimit     time.Duration
	CreatedAt     time.Time
	LastActive    time.Time

	Phase     Phase
	Questions []questions.Question
	Index     int
	Players   *players.Store

	Submissions map[int]map[string]string
	Details     map[int]map[string]ScoreDetail
	History     []RoundRecord
	// Rounds is the round counter of the active repeatable question, keyed by strategy id.
	Rounds map[string]int

	QuestionStartedAt time.Time
	Halted            error
	Leaderboard       []Standing

	advancing atomic.Bool
}

func NewGame(code string, maxPlayers, questionCount int, timeLimit time.Duration, now time.Time) *Game {
	return &Game{
		Code:          code,
		MaxPlayers:    maxPlayers,
		QuestionCount: questionCount,
		TimeLimit:     timeLimit,
		CreatedAt:     now,
		LastActive:    now,
		Phase:         PhaseWaiting,
		Index:         -1,
		Players:       players.NewStore(),
		Submissions:   make(map[int]map[string]string),
		Details:       make(map[int]map[string]ScoreDetail),
		Rounds:        make(map[string]int),
	}
}

func (g *Game) Started() bool {
	return g.Phase != PhaseWaiting
}

func (g *Game) Finished() bool {
	return g.Phase == PhaseFinished
}

// Current returns the active question, if any.
func (g *Game) Current() (questions.Question, bool) {
	if g.Phase != PhasePlaying || g.Index < 0 || g.Index >= len(g.Questions) {
		return questions.Question{}, false
	}
	return g.Questions[g.Index], true
}

// CurrentRound is the 1-based round of the active question.
func (g *Game) CurrentRound() int {
	q, ok := g.Current()
	if !ok || !q.Repeatable() {
		return 1
	}
	if r := g.Rounds[q.Strategy]; r > 0 {
		return r
	}
	return 1
}

func (g *Game) Position() Position {
	return Position{Index: g.Index, Round: g.CurrentRound()}
}

// SubmissionsFor returns the live answer map for a question index, creating it.
func (g *Game) SubmissionsFor(index int) map[string]string {
	m, ok := g.Submissions[index]
	if !ok {
		m = make(map[string]string)
		g.Submissions[index] = m
	}
	return m
}

// BeginAdvance claims the room's advance slot. It returns false when another
// advance is already running.
func (g *Game) BeginAdvance() bool {
	return g.advancing.CompareAndSwap(false, true)
}

func (g *Game) EndAdvance() {
	g.advancing.Store(false)
}

// Rank orders participants by score, ties sharing a rank and keeping join order.
func (g *Game) Rank() []Standing {
	ranked := g.Players.Participants()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	out := make([]Standing, len(ranked))
	for i, p := range ranked {
		rank := i + 1
		if i > 0 && p.Score == out[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{Rank: rank, PlayerID: p.ID, Name: p.Name, Score: p.Score}
	}
	return out
}
