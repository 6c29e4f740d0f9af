package buffs

import (
	"fmt"

	"github.com/google/uuid"
)

type Kind int

const (
	Multiply Kind = iota + 1
	Divide
	Add
)

func (k Kind) String() string {
	switch k {
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	case Add:
		return "add"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Trigger int

const (
	Always Trigger = iota
	OnPositiveScore
)

func (t Trigger) String() string {
	if t == OnPositiveScore {
		return "on_positive_score"
	}
	return "always"
}

// Permanent marks a buff that stays until its trigger fires.
const Permanent = -1

// Buff is a score modifier waiting on a future scoring event.
//
// Duration 0 applies at the next scoring event and is then removed whether or
// not its trigger held. A positive duration counts the scoring events still to
// pass before it becomes due. Permanent buffs are consumed only when they fire.
type Buff struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Value    int     `json:"value"`
	Duration int     `json:"duration"`
	Trigger  Trigger `json:"trigger"`
	// Scope is the strategy id of the repeatable question the buff is confined
	// to. Empty means unscoped.
	Scope  string `json:"scope,omitempty"`
	Source string `json:"source,omitempty"`
}

func newBuff(kind Kind, value, duration int, trigger Trigger) Buff {
	return Buff{
		ID:       uuid.NewString(),
		Kind:     kind,
		Value:    value,
		Duration: duration,
		Trigger:  trigger,
	}
}

func Multiplier(factor, duration int, trigger Trigger) Buff {
	return newBuff(Multiply, factor, duration, trigger)
}

func Halving(duration int, trigger Trigger) Buff {
	return newBuff(Divide, 2, duration, trigger)
}

func Bonus(amount, duration int, trigger Trigger) Buff {
	return newBuff(Add, amount, duration, trigger)
}

// Scoped returns a copy confined to the given repeatable strategy.
func (b Buff) Scoped(strategyID string) Buff {
	b.Scope = strategyID
	return b
}

func (b Buff) satisfied(score int) bool {
	switch b.Trigger {
	case OnPositiveScore:
		return score > 0
	default:
		return true
	}
}

func (b Buff) due(score int) bool {
	if b.Duration != 0 && b.Duration != Permanent {
		return false
	}
	return b.satisfied(score)
}

func (b Buff) apply(score int) int {
	switch b.Kind {
	case Multiply:
		return score * b.Value
	case Divide:
		if b.Value == 0 {
			return score
		}
		// Go division truncates toward zero.
		return score / b.Value
	case Add:
		return score + b.Value
	}
	return score
}
