// Package events carries room state changes from the game core to the
// transports.
package events

import (
	"errors"

	"payoffquiz/internal/gamedata"
)

type Kind string

const (
	KindSnapshot = Kind("snapshot")
	KindClosed   = Kind("closed")
)

// ErrBusFull is returned when an event is dropped because no consumer kept up.
var ErrBusFull = errors.New("event bus full")

const DefaultBufferSize = 256

type RoomEvent struct {
	Kind     Kind
	Code     string
	Snapshot gamedata.Snapshot
}

type Bus struct {
	Events chan RoomEvent
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Bus{
		Events: make(chan RoomEvent, size),
	}
}

// Publish queues the room's latest snapshot. It never blocks.
func (b *Bus) Publish(code string, snap gamedata.Snapshot) error {
	return b.send(RoomEvent{Kind: KindSnapshot, Code: code, Snapshot: snap})
}

// Closed announces that the room is gone.
func (b *Bus) Closed(code string) error {
	return b.send(RoomEvent{Kind: KindClosed, Code: code})
}

func (b *Bus) send(ev RoomEvent) error {
	select {
	case b.Events <- ev:
		return nil
	default:
		return ErrBusFull
	}
}
