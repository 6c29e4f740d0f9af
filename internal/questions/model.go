package questions

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"payoffquiz/internal/gameerr"
)

type Kind string

const (
	KindChoice = Kind("CHOICE")
	KindBid    = Kind("BID")
)

type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Kind          Kind     `json:"kind"`
	Options       []Option `json:"options,omitempty"`
	Min           int      `json:"min,omitempty"`
	Max           int      `json:"max,omitempty"`
	Step          int      `json:"step,omitempty"`
	Strategy      string   `json:"strategy"`
	MinPlayers    int      `json:"minPlayers"`
	MaxPlayers    int      `json:"maxPlayers"`
	DefaultChoice string   `json:"defaultChoice,omitempty"`

	SequenceID    string `json:"sequenceId,omitempty"`
	SequenceOrder int    `json:"sequenceOrder,omitempty"`
	SequenceSize  int    `json:"sequenceSize,omitempty"`

	RepeatTimes int `json:"repeatTimes,omitempty"`

	// Params carries strategy-specific constants such as an auction's item value.
	Params map[string]int `json:"params,omitempty"`
}

func (q Question) Repeatable() bool {
	return q.RepeatTimes > 1
}

// Rounds is the number of times the question is played before the room moves on.
func (q Question) Rounds() int {
	if q.Repeatable() {
		return q.RepeatTimes
	}
	return 1
}

func (q Question) Fits(players int) bool {
	if q.MinPlayers > 0 && players < q.MinPlayers {
		return false
	}
	if q.MaxPlayers > 0 && players > q.MaxPlayers {
		return false
	}
	return true
}

func (q Question) Param(key string, fallback int) int {
	if v, ok := q.Params[key]; ok {
		return v
	}
	return fallback
}

func (q Question) hasOption(key string) bool {
	return slices.ContainsFunc(q.Options, func(o Option) bool { return o.Key == key })
}

// Fallback is the answer recorded for a player who never responded.
func (q Question) Fallback() string {
	if q.DefaultChoice != "" {
		return q.DefaultChoice
	}
	switch q.Kind {
	case KindBid:
		return strconv.Itoa(q.Min)
	default:
		if len(q.Options) > 0 {
			return q.Options[0].Key
		}
		return "A"
	}
}

// Normalize validates a raw answer and returns its canonical form.
func (q Question) Normalize(raw string) (string, error) {
	choice := strings.TrimSpace(raw)
	switch q.Kind {
	case KindChoice:
		if q.hasOption(choice) {
			return choice, nil
		}
		if up := strings.ToUpper(choice); q.hasOption(up) {
			return up, nil
		}
		return "", fmt.Errorf("%w: %q is not an option of %s", gameerr.ErrInvalidChoice, raw, q.ID)
	case KindBid:
		bid, err := strconv.Atoi(choice)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", gameerr.ErrInvalidChoice, raw)
		}
		if bid < q.Min || bid > q.Max {
			return "", fmt.Errorf("%w: bid %d outside [%d,%d]", gameerr.ErrInvalidChoice, bid, q.Min, q.Max)
		}
		if q.Step > 1 && (bid-q.Min)%q.Step != 0 {
			return "", fmt.Errorf("%w: bid %d not a multiple of step %d from %d", gameerr.ErrInvalidChoice, bid, q.Step, q.Min)
		}
		return strconv.Itoa(bid), nil
	}
	return "", fmt.Errorf("%w: question %s has unknown kind %q", gameerr.ErrConfiguration, q.ID, q.Kind)
}

// Public is the view of a question sent to players.
type Public struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Kind        Kind     `json:"kind"`
	Options     []Option `json:"options,omitempty"`
	Min         int      `json:"min,omitempty"`
	Max         int      `json:"max,omitempty"`
	Step        int      `json:"step,omitempty"`
	RepeatTimes int      `json:"repeatTimes,omitempty"`
	Sequence    string   `json:"sequence,omitempty"`
}

func (q Question) Public() Public {
	p := Public{
		ID:      q.ID,
		Text:    q.Text,
		Kind:    q.Kind,
		Options: q.Options,
		Min:     q.Min,
		Max:     q.Max,
		Step:    q.Step,
	}
	if q.Repeatable() {
		p.RepeatTimes = q.RepeatTimes
	}
	if q.SequenceID != "" {
		p.Sequence = fmt.Sprintf("%d/%d", q.SequenceOrder, q.SequenceSize)
	}
	return p
}
