package strategies

import (
	"payoffquiz/internal/buffs"
	"payoffquiz/internal/scoring"
)

// minority rewards the smaller camp.
type minority struct{}

func (minority) ID() string { return MinorityGame }

func (minority) BaseScores(c *scoring.Context) (map[string]int, error) {
	minorityPts := c.Question.Param("minority", 3)
	majorityPts := c.Question.Param("majority", 1)
	tiePts := c.Question.Param("tie", 2)

	counts := make(map[string]int)
	for _, choice := range c.Submissions {
		counts[choice]++
	}
	low, high := -1, 0
	for _, n := range counts {
		if low < 0 || n < low {
			low = n
		}
		if n > high {
			high = n
		}
	}

	out := make(map[string]int, len(c.Submissions))
	for id, choice := range c.Submissions {
		switch {
		case len(counts) == 1:
			out[id] = majorityPts
		case low == high:
			out[id] = tiePts
		case counts[choice] == low:
			out[id] = minorityPts
		default:
			out[id] = majorityPts
		}
	}
	return out, nil
}

// investOrCash pays cash now, or nothing now plus a multiplier that waits
// for the player's next positive score.
type investOrCash struct{}

func (investOrCash) ID() string { return InvestOrCash }

func (investOrCash) BaseScores(c *scoring.Context) (map[string]int, error) {
	cash := c.Question.Param("cash", 3)
	out := make(map[string]int, len(c.Submissions))
	for id, choice := range c.Submissions {
		if choice == "INVEST" {
			out[id] = 0
		} else {
			out[id] = cash
		}
	}
	return out, nil
}

func (investOrCash) GrantBuffs(c *scoring.Context, _ map[string]int) {
	factor := c.Question.Param("factor", 2)
	for id, choice := range c.Submissions {
		if choice == "INVEST" {
			c.Grant(id, buffs.Multiplier(factor, buffs.Permanent, buffs.OnPositiveScore))
		}
	}
}

// delayedBonus pays a little now or a larger flat bonus some questions later.
type delayedBonus struct{}

func (delayedBonus) ID() string { return DelayedBonus }

func (delayedBonus) BaseScores(c *scoring.Context) (map[string]int, error) {
	now := c.Question.Param("now", 2)
	out := make(map[string]int, len(c.Submissions))
	for id, choice := range c.Submissions {
		if choice == "LATER" {
			out[id] = 0
		} else {
			out[id] = now
		}
	}
	return out, nil
}

func (delayedBonus) GrantBuffs(c *scoring.Context, _ map[string]int) {
	later := c.Question.Param("later", 6)
	// "delay" counts questions ahead; the buff waits delay-1 scoring events
	// and lands on the delay-th.
	wait := max(c.Question.Param("delay", 2)-1, 0)
	for id, choice := range c.Submissions {
		if choice == "LATER" {
			c.Grant(id, buffs.Bonus(later, wait, buffs.Always))
		}
	}
}
