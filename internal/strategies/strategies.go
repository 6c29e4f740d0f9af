// Package strategies holds the payoff functions questions refer to by id.
package strategies

import (
	"fmt"
	"strconv"

	"payoffquiz/internal/gameerr"
	"payoffquiz/internal/scoring"
)

const (
	NumberGrouping   = "number_grouping"
	SealedBidAuction = "sealed_bid_auction"
	MinorityGame     = "minority_game"
	TwoThirdsAverage = "two_thirds_average"
	InvestOrCash     = "invest_or_cash"
	DelayedBonus     = "delayed_bonus"
	RepeatedDilemma  = "repeated_dilemma"
)

// Default returns a registry with every built-in strategy.
func Default() *scoring.Registry {
	return scoring.NewRegistry(
		numberGrouping{},
		sealedBid{},
		minority{},
		twoThirds{},
		investOrCash{},
		delayedBonus{},
		dilemma{},
	)
}

func intChoices(c *scoring.Context) (map[string]int, error) {
	out := make(map[string]int, len(c.Submissions))
	for id, raw := range c.Submissions {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: player %s answered %q", gameerr.ErrInvalidChoice, id, raw)
		}
		out[id] = v
	}
	return out, nil
}
