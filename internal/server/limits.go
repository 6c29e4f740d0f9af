package server

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// submitLimits holds one token bucket per room and player.
type submitLimits struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newSubmitLimits(perSec float64, burst int) *submitLimits {
	return &submitLimits{
		perSec:  rate.Limit(perSec),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func limitKey(code, playerID string) string {
	return code + "/" + playerID
}

func (l *submitLimits) allow(code, playerID string) bool {
	key := limitKey(code, playerID)
	l.mu.Lock()
	lim, ok := l.buckets[key]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.buckets[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *submitLimits) forgetRoom(code string) {
	prefix := code + "/"
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.buckets {
		if strings.HasPrefix(key, prefix) {
			delete(l.buckets, key)
		}
	}
}

func (l *submitLimits) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
