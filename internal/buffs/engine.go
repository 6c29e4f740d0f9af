package buffs

// Apply runs every due buff over score in list order. Each trigger is checked
// against the running score, so stacked multipliers compound. It returns the
// final score and the buffs still pending.
func Apply(list []Buff, score int) (int, []Buff) {
	remaining := make([]Buff, 0, len(list))
	for _, b := range list {
		if b.due(score) {
			score = b.apply(score)
			continue
		}
		if b.Duration == 0 {
			// Due this round but its trigger did not hold; it expires unused.
			continue
		}
		remaining = append(remaining, b)
	}
	return score, remaining
}

// Decay moves every timed buff one scoring event closer to being due.
// Permanent buffs are left untouched.
func Decay(list []Buff) []Buff {
	out := make([]Buff, 0, len(list))
	for _, b := range list {
		if b.Duration > 0 {
			b.Duration--
		}
		out = append(out, b)
	}
	return out
}

// PurgeScope drops every buff confined to the given repeatable strategy.
func PurgeScope(list []Buff, strategyID string) []Buff {
	if strategyID == "" {
		return list
	}
	out := make([]Buff, 0, len(list))
	for _, b := range list {
		if b.Scope == strategyID {
			continue
		}
		out = append(out, b)
	}
	return out
}
