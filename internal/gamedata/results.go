package gamedata

import (
	"maps"
	"time"
)

// SubmissionRecord is one answer as handed to the result store.
type SubmissionRecord struct {
	RoomCode   string
	PlayerID   string
	QuestionID string
	Index      int
	Round      int
	Choice     string
	Default    bool
	At         time.Time
}

// FinalResult is what the result store keeps of a finished game.
type FinalResult struct {
	RoomCode    string
	CreatedAt   time.Time
	FinishedAt  time.Time
	QuestionIDs []string
	Leaderboard []Standing
	Details     map[int]map[string]ScoreDetail
	History     []RoundRecord
}

// FinalResult copies the finished game's results out of the room.
func (g *Game) FinalResult(at time.Time) FinalResult {
	r := FinalResult{
		RoomCode:    g.Code,
		CreatedAt:   g.CreatedAt,
		FinishedAt:  at,
		Leaderboard: append([]Standing(nil), g.Leaderboard...),
		Details:     make(map[int]map[string]ScoreDetail, len(g.Details)),
		History:     append([]RoundRecord(nil), g.History...),
	}
	for _, q := range g.Questions {
		r.QuestionIDs = append(r.QuestionIDs, q.ID)
	}
	for idx, d := range g.Details {
		r.Details[idx] = maps.Clone(d)
	}
	return r
}
