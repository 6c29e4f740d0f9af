package utility

import (
	"fmt"
	"math/rand"
)

// RandomColorHex returns a #rrggbb color with each channel kept away from pure black or white.
func RandomColorHex() string {
	r := 4 + rand.Intn(248)
	g := 4 + rand.Intn(248)
	b := 4 + rand.Intn(248)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
