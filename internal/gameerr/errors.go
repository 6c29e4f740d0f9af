package gameerr

import (
	"errors"
	"fmt"
)

// Kinds. Every error returned by the game core wraps exactly one of these.
var (
	ErrNotFound             = errors.New("not-found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid-input")
	ErrConfiguration        = errors.New("configuration-error")
	ErrTransientPersistence = errors.New("transient-persistence-failure")
)

var (
	ErrRoomNotFound   = fmt.Errorf("%w: room", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("%w: player", ErrNotFound)
)

var (
	ErrRoomFull         = fmt.Errorf("%w: room-full", ErrConflict)
	ErrRoomNotWaiting   = fmt.Errorf("%w: room-not-waiting", ErrConflict)
	ErrAlreadyStarted   = fmt.Errorf("%w: already-started", ErrConflict)
	ErrNotStarted       = fmt.Errorf("%w: not-started", ErrConflict)
	ErrNoActiveQuestion = fmt.Errorf("%w: no-active-question", ErrConflict)
	ErrAlreadySubmitted = fmt.Errorf("%w: already-submitted", ErrConflict)
	ErrSpectator        = fmt.Errorf("%w: spectators-cannot-submit", ErrConflict)
	ErrAlreadyFinished  = fmt.Errorf("%w: already-finished", ErrConflict)
)

var (
	ErrInvalidChoice  = fmt.Errorf("%w: choice", ErrInvalidInput)
	ErrInvalidRequest = fmt.Errorf("%w: request", ErrInvalidInput)
)

var (
	ErrStrategyNotFound = fmt.Errorf("%w: strategy-not-registered", ErrConfiguration)
	ErrRoomHalted       = fmt.Errorf("%w: room-halted", ErrConfiguration)
	ErrNoQuestions      = fmt.Errorf("%w: no-eligible-questions", ErrConfiguration)
)

var kinds = []error{
	ErrNotFound,
	ErrConflict,
	ErrInvalidInput,
	ErrConfiguration,
	ErrTransientPersistence,
}

// Kind returns the kind sentinel err wraps, or nil when it wraps none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Transient marks a storage failure that must not stall a live game.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransientPersistence, err)
}
