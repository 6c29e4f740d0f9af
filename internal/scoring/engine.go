package scoring

import (
	"fmt"
	"maps"

	"payoffquiz/internal/buffs"
	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/players"
	"payoffquiz/internal/questions"
)

type Result struct {
	QuestionID     string
	Index          int
	Choices        map[string]string
	Base           map[string]int
	Final          map[string]int
	Details        map[string]gamedata.ScoreDetail
	Repeatable     bool
	Round          int
	TotalRounds    int
	ShouldContinue bool
}

// Empty reports whether no strategy ran.
func (r Result) Empty() bool {
	return len(r.Base) == 0
}

type Engine struct {
	registry *Registry
}

func NewEngine(r *Registry) *Engine {
	return &Engine{registry: r}
}

// Score computes the result of the room's active question from its current
// submissions. It consumes and grants buffs and advances the round counter of
// repeatable questions, but leaves cumulative scores to Result.ApplyTo.
func (e *Engine) Score(g *gamedata.Game) (Result, error) {
	q, ok := g.Current()
	if !ok {
		return Result{}, gameerr.ErrNoActiveQuestion
	}
	res := Result{
		QuestionID:  q.ID,
		Index:       g.Index,
		Repeatable:  q.Repeatable(),
		Round:       g.CurrentRound(),
		TotalRounds: q.Rounds(),
	}
	subs := g.Submissions[g.Index]
	if len(subs) == 0 {
		// Nobody answered: no strategy runs, but a repeatable question still
		// uses up the round.
		closeRound(g, q, &res)
		return res, nil
	}

	strat, err := e.registry.Lookup(q.Strategy)
	if err != nil {
		return res, fmt.Errorf("question %s: %w", q.ID, err)
	}
	roundStrat, isRound := strat.(RoundStrategy)

	ctx := &Context{
		Question:    q,
		Index:       g.Index,
		Round:       res.Round,
		TotalRounds: res.TotalRounds,
		Submissions: maps.Clone(subs),
		Totals:      make(map[string]int, len(subs)),
		players:     make(map[string]*players.Player, len(subs)),
		grants:      make(map[string][]buffs.Buff),
	}
	for id := range subs {
		if p := g.Players.Get(id); p != nil {
			ctx.players[id] = p
			ctx.Totals[id] = p.Score
		}
	}

	var base map[string]int
	if isRound {
		base, err = roundStrat.RoundScores(ctx, res.Round)
	} else {
		base, err = strat.BaseScores(ctx)
	}
	if err != nil {
		return res, fmt.Errorf("scoring question %s with %s: %w", q.ID, q.Strategy, err)
	}

	res.Choices = ctx.Submissions
	res.Base = base
	res.Final = make(map[string]int, len(base))
	res.Details = make(map[string]gamedata.ScoreDetail, len(base))
	for id, b := range base {
		final := b
		if p := ctx.players[id]; p != nil {
			final, p.Buffs = buffs.Apply(p.Buffs, b)
		}
		res.Final[id] = final
		res.Details[id] = gamedata.ScoreDetail{Base: b, Final: final}
	}

	if granter, ok := strat.(BuffGranter); ok {
		granter.GrantBuffs(ctx, base)
	}
	for id, p := range ctx.players {
		// Buffs granted this pass start counting from the next one.
		p.Buffs = append(buffs.Decay(p.Buffs), ctx.grants[id]...)
	}

	closeRound(g, q, &res)
	return res, nil
}

// closeRound moves a repeatable question's round counter on. Once the
// question has no rounds left its counter is cleared and the buffs scoped
// to it are purged.
func closeRound(g *gamedata.Game, q questions.Question, res *Result) {
	if res.Repeatable && res.Round < res.TotalRounds {
		res.ShouldContinue = true
		g.Rounds[q.Strategy] = res.Round + 1
		return
	}
	delete(g.Rounds, q.Strategy)
	for _, p := range g.Players.GetList() {
		p.Buffs = buffs.PurgeScope(p.Buffs, q.Strategy)
	}
}

// ApplyTo adds the result to the room's cumulative scores, per-question
// details and round history. It is the only writer of cumulative scores.
func (r Result) ApplyTo(g *gamedata.Game) {
	if r.Empty() {
		return
	}
	details, ok := g.Details[r.Index]
	if !ok {
		details = make(map[string]gamedata.ScoreDetail, len(r.Final))
		g.Details[r.Index] = details
	}
	for id, final := range r.Final {
		g.Players.UpdateScore(id, final)
		d := details[id]
		d.Base += r.Base[id]
		d.Final += final
		details[id] = d
	}
	g.History = append(g.History, gamedata.RoundRecord{
		Index:      r.Index,
		Round:      r.Round,
		TotalRound: r.TotalRounds,
		QuestionID: r.QuestionID,
		Choices:    r.Choices,
		Base:       r.Base,
		Final:      r.Final,
	})
}
