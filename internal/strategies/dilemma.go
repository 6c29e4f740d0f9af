package strategies

import (
	"payoffquiz/internal/buffs"
	"payoffquiz/internal/scoring"
)

const (
	cooperate = "C"
	defect    = "D"
)

// dilemma is an N-player prisoner's dilemma played over the question's
// rounds. Defecting in two consecutive rounds halves the next round's score;
// that debuff never outlives the question.
type dilemma struct{}

func (dilemma) ID() string { return RepeatedDilemma }

func (d dilemma) BaseScores(c *scoring.Context) (map[string]int, error) {
	return d.RoundScores(c, c.Round)
}

// RoundScores pays the same matrix in every round. Rounds differ only through
// the choices remembered for the defection debuff.
func (dilemma) RoundScores(c *scoring.Context, _ int) (map[string]int, error) {
	reward := c.Question.Param("reward", 3)
	temptation := c.Question.Param("temptation", 5)
	sucker := c.Question.Param("sucker", 0)
	punishment := c.Question.Param("punishment", 1)

	cooperators := 0
	for _, choice := range c.Submissions {
		if choice == cooperate {
			cooperators++
		}
	}
	out := make(map[string]int, len(c.Submissions))
	for id, choice := range c.Submissions {
		if choice == cooperate {
			if cooperators == len(c.Submissions) {
				out[id] = reward
			} else {
				out[id] = sucker
			}
		} else if cooperators > 0 {
			out[id] = temptation
		} else {
			out[id] = punishment
		}
		c.Remember(id, choice)
	}
	return out, nil
}

func (dilemma) GrantBuffs(c *scoring.Context, _ map[string]int) {
	for _, id := range c.PlayerIDs() {
		h := c.History(id)
		if len(h) >= 2 && h[len(h)-1] == defect && h[len(h)-2] == defect {
			c.Grant(id, buffs.Halving(0, buffs.Always).Scoped(RepeatedDilemma))
		}
	}
}
