package utility

import (
	"strconv"
	"testing"
)

func TestRandomColorHex(t *testing.T) {
	for i := 0; i < 200; i++ {
		color := RandomColorHex()
		if len(color) != 7 || color[0] != '#' {
			t.Fatalf("RandomColorHex() = %q, want #rrggbb", color)
		}
		for c := 1; c < 7; c += 2 {
			v, err := strconv.ParseUint(color[c:c+2], 16, 8)
			if err != nil {
				t.Fatalf("RandomColorHex() = %q: %v", color, err)
			}
			if v < 4 || v > 251 {
				t.Errorf("RandomColorHex() = %q, channel %d out of [4,251]", color, v)
			}
		}
	}
}

func TestRandomColorHex_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[RandomColorHex()] = true
	}
	if len(seen) < 95 {
		t.Errorf("only %d distinct colors out of 100", len(seen))
	}
}
