package questions

import (
	"math/rand"
	"sort"

	"payoffquiz/internal/logger"
)

type drawKind int

const (
	drawNormal drawKind = iota
	drawSequence
	drawRepeatable
)

// Pool partitions the questions eligible for a player count into draw options.
type Pool struct {
	normal      []Question
	sequences   [][]Question
	repeatables []Question
}

func NewPool(all []Question, players int) *Pool {
	l := logger.Component("questions")
	p := &Pool{}
	groups := make(map[string][]Question)
	var groupOrder []string

	for _, q := range all {
		if !q.Fits(players) {
			continue
		}
		switch {
		case q.SequenceID != "":
			if _, seen := groups[q.SequenceID]; !seen {
				groupOrder = append(groupOrder, q.SequenceID)
			}
			groups[q.SequenceID] = append(groups[q.SequenceID], q)
		case q.Repeatable():
			p.repeatables = append(p.repeatables, q)
		default:
			p.normal = append(p.normal, q)
		}
	}

	for _, id := range groupOrder {
		members := groups[id]
		if err := validSequence(members); err != "" {
			l.Warn().Str("sequence", id).Str("reason", err).Int("members", len(members)).
				Msg("invalid sequence group demoted to normal questions")
			p.normal = append(p.normal, members...)
			continue
		}
		p.sequences = append(p.sequences, members)
	}
	return p
}

// validSequence sorts members by position in place and reports why the group
// is unusable, or "" when it is a contiguous 1..K run of its declared size.
func validSequence(members []Question) string {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].SequenceOrder < members[j].SequenceOrder
	})
	size := members[0].SequenceSize
	if size != len(members) {
		return "member count does not match declared size"
	}
	for i, q := range members {
		if q.SequenceSize != size {
			return "members disagree on group size"
		}
		if q.SequenceOrder != i+1 {
			return "positions are not contiguous from 1"
		}
	}
	return ""
}

// Size is the number of draw options left.
func (p *Pool) Size() (normal, sequences, repeatables int) {
	return len(p.normal), len(p.sequences), len(p.repeatables)
}

// Slots is the share of the question budget a drawn question consumes.
func Slots(q Question) int {
	return q.Rounds()
}

// Draw selects questions until target slots are used or nothing fits. Drawn
// options leave the pool. Under-filling is logged, never an error.
func (p *Pool) Draw(target int, rng *rand.Rand) []Question {
	var out []Question
	used := 0
	for used < target {
		left := target - used
		kinds := p.available(left)
		if len(kinds) == 0 {
			l := logger.Component("questions")
			l.Warn().Int("target", target).Int("used", used).
				Msg("question pool exhausted before target was reached")
			break
		}
		switch kinds[rng.Intn(len(kinds))] {
		case drawNormal:
			i := rng.Intn(len(p.normal))
			q := p.normal[i]
			p.normal = append(p.normal[:i], p.normal[i+1:]...)
			out = append(out, q)
			used++
		case drawSequence:
			fit := fitting(len(p.sequences), left, func(i int) int { return len(p.sequences[i]) })
			i := fit[rng.Intn(len(fit))]
			group := p.sequences[i]
			p.sequences = append(p.sequences[:i], p.sequences[i+1:]...)
			out = append(out, group...)
			used += len(group)
		case drawRepeatable:
			fit := fitting(len(p.repeatables), left, func(i int) int { return p.repeatables[i].RepeatTimes })
			i := fit[rng.Intn(len(fit))]
			q := p.repeatables[i]
			p.repeatables = append(p.repeatables[:i], p.repeatables[i+1:]...)
			out = append(out, q)
			used += q.RepeatTimes
		}
	}
	return out
}

func (p *Pool) available(left int) []drawKind {
	var kinds []drawKind
	if len(p.normal) > 0 && left >= 1 {
		kinds = append(kinds, drawNormal)
	}
	if len(fitting(len(p.sequences), left, func(i int) int { return len(p.sequences[i]) })) > 0 {
		kinds = append(kinds, drawSequence)
	}
	if len(fitting(len(p.repeatables), left, func(i int) int { return p.repeatables[i].RepeatTimes })) > 0 {
		kinds = append(kinds, drawRepeatable)
	}
	return kinds
}

func fitting(n, left int, cost func(int) int) []int {
	var idx []int
	for i := range n {
		if cost(i) <= left {
			idx = append(idx, i)
		}
	}
	return idx
}
