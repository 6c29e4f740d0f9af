package strategies

import (
	"payoffquiz/internal/scoring"
)

// numberGrouping splits the options into a low and a high group. When every
// player lands in the same group they keep their number, otherwise each
// loses it.
type numberGrouping struct{}

func (numberGrouping) ID() string { return NumberGrouping }

func (numberGrouping) BaseScores(c *scoring.Context) (map[string]int, error) {
	picks, err := intChoices(c)
	if err != nil {
		return nil, err
	}
	split := c.Question.Param("groupAMax", 3)
	groups := make(map[bool]bool)
	for _, v := range picks {
		groups[v <= split] = true
	}
	same := len(groups) <= 1
	out := make(map[string]int, len(picks))
	for id, v := range picks {
		if same {
			out[id] = v
		} else {
			out[id] = -v
		}
	}
	return out, nil
}

// sealedBid awards the item to the highest bid. Winners score value minus
// their bid, everyone else the consolation. Tied top bids all win.
type sealedBid struct{}

func (sealedBid) ID() string { return SealedBidAuction }

func (sealedBid) BaseScores(c *scoring.Context) (map[string]int, error) {
	bids, err := intChoices(c)
	if err != nil {
		return nil, err
	}
	value := c.Question.Param("value", 100)
	consolation := c.Question.Param("consolation", 0)
	top := 0
	first := true
	for _, b := range bids {
		if first || b > top {
			top = b
			first = false
		}
	}
	out := make(map[string]int, len(bids))
	for id, b := range bids {
		if b == top {
			out[id] = value - b
		} else {
			out[id] = consolation
		}
	}
	return out, nil
}

// twoThirds pays a prize to every guess closest to two thirds of the mean.
type twoThirds struct{}

func (twoThirds) ID() string { return TwoThirdsAverage }

func (twoThirds) BaseScores(c *scoring.Context) (map[string]int, error) {
	guesses, err := intChoices(c)
	if err != nil {
		return nil, err
	}
	prize := c.Question.Param("prize", 10)
	n := len(guesses)
	sum := 0
	for _, g := range guesses {
		sum += g
	}
	// Distances are scaled by 3n to stay in integers: |3n*g - 2*sum|.
	dist := make(map[string]int, n)
	best := -1
	for id, g := range guesses {
		d := abs(3*n*g - 2*sum)
		dist[id] = d
		if best < 0 || d < best {
			best = d
		}
	}
	out := make(map[string]int, n)
	for id, d := range dist {
		if d == best {
			out[id] = prize
		} else {
			out[id] = 0
		}
	}
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
