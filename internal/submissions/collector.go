package submissions

import (
	"fmt"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
)

type Entry struct {
	PlayerID string
	Choice   string
	Default  bool
}

// Record validates raw against the active question and stores it for the
// player. A player answers each question index once.
func Record(g *gamedata.Game, playerID, raw string) (Entry, error) {
	if !g.Started() {
		return Entry{}, gameerr.ErrNotStarted
	}
	q, ok := g.Current()
	if !ok {
		return Entry{}, gameerr.ErrNoActiveQuestion
	}
	p := g.Players.Get(playerID)
	if p == nil {
		return Entry{}, fmt.Errorf("%w: %s", gameerr.ErrPlayerNotFound, playerID)
	}
	if p.Spectator {
		return Entry{}, gameerr.ErrSpectator
	}
	subs := g.SubmissionsFor(g.Index)
	if _, dup := subs[playerID]; dup {
		return Entry{}, gameerr.ErrAlreadySubmitted
	}
	choice, err := q.Normalize(raw)
	if err != nil {
		return Entry{}, err
	}
	subs[playerID] = choice
	p.Ready = true
	return Entry{PlayerID: playerID, Choice: choice}, nil
}

// FillDefaults writes the question's default answer for every participant who
// has not answered the active question. Existing answers are never touched.
func FillDefaults(g *gamedata.Game) []Entry {
	q, ok := g.Current()
	if !ok {
		return nil
	}
	subs := g.SubmissionsFor(g.Index)
	var filled []Entry
	for _, p := range g.Players.Participants() {
		if _, done := subs[p.ID]; done {
			continue
		}
		choice := q.Fallback()
		subs[p.ID] = choice
		filled = append(filled, Entry{PlayerID: p.ID, Choice: choice, Default: true})
	}
	return filled
}

// AllSubmitted reports whether every connected participant has answered the
// active question.
func AllSubmitted(g *gamedata.Game) bool {
	if _, ok := g.Current(); !ok {
		return false
	}
	active := g.Players.Active()
	if len(active) == 0 {
		return false
	}
	subs := g.Submissions[g.Index]
	for _, p := range active {
		if _, ok := subs[p.ID]; !ok {
			return false
		}
	}
	return true
}
