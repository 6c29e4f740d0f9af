package questions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed catalog.json
var defaultCatalog []byte

// LoadCatalog reads questions from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) ([]Question, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
		data = b
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]Question, error) {
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		if q.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
		if q.Strategy == "" {
			return nil, fmt.Errorf("question %s has no strategy", q.ID)
		}
		switch q.Kind {
		case KindChoice:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("choice question %s has no options", q.ID)
			}
		case KindBid:
			if q.Max < q.Min {
				return nil, fmt.Errorf("bid question %s has max below min", q.ID)
			}
		default:
			return nil, fmt.Errorf("question %s has unknown kind %q", q.ID, q.Kind)
		}
	}
	return qs, nil
}

// Index maps question ids to their specs.
func Index(qs []Question) map[string]Question {
	m := make(map[string]Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}
