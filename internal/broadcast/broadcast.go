// Package broadcast fans room events out to every connected client.
package broadcast

import (
	"encoding/json"
	"sync"

	"payoffquiz/internal/events"
	"payoffquiz/internal/logger"
)

type Message struct {
	Event string
	Data  []byte
}

// Sink is another transport that wants every room message, such as the
// websocket hub.
type Sink interface {
	Deliver(code string, msg Message)
	CloseRoom(code string)
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[string]map[chan Message]bool
	last    map[string]Message
	sinks   []Sink
}

// NewBroadcaster starts forwarding bus events until the bus channel closes.
func NewBroadcaster(bus *events.Bus, sinks ...Sink) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[string]map[chan Message]bool),
		last:    make(map[string]Message),
		sinks:   sinks,
	}
	go func() {
		for ev := range bus.Events {
			b.Handle(ev)
		}
	}()
	return b
}

func (b *Broadcaster) Handle(ev events.RoomEvent) {
	switch ev.Kind {
	case events.KindClosed:
		b.CloseRoom(ev.Code)
	case events.KindSnapshot:
		data, err := json.Marshal(ev.Snapshot)
		if err != nil {
			log := logger.Component("broadcast")
			log.Error().Err(err).Str("room", ev.Code).Msg("marshal snapshot")
			return
		}
		b.Broadcast(ev.Code, Message{Event: string(events.KindSnapshot), Data: data})
	}
}

// Subscribe registers a client for a room. The room's latest snapshot, if
// any, is queued right away.
func (b *Broadcaster) Subscribe(code string) chan Message {
	ch := make(chan Message, 10)
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.Clients[code] == nil {
		b.Clients[code] = make(map[chan Message]bool)
	}
	b.Clients[code][ch] = true
	if msg, ok := b.last[code]; ok {
		ch <- msg
	}
	return ch
}

// Unsubscribe removes and closes ch. Channels already closed by CloseRoom
// are left alone.
func (b *Broadcaster) Unsubscribe(code string, ch chan Message) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if !b.Clients[code][ch] {
		return
	}
	delete(b.Clients[code], ch)
	if len(b.Clients[code]) == 0 {
		delete(b.Clients, code)
	}
	close(ch)
}

func (b *Broadcaster) Broadcast(code string, msg Message) {
	b.Mu.Lock()
	b.last[code] = msg
	dropped := 0
	for ch := range b.Clients[code] {
		select {
		case ch <- msg:
		default:
			// skip clients with full data channels
			dropped++
		}
	}
	b.Mu.Unlock()

	if dropped > 0 {
		log := logger.Component("broadcast")
		log.Warn().Str("room", code).Int("clients", dropped).Msg("slow clients skipped")
	}
	for _, s := range b.sinks {
		s.Deliver(code, msg)
	}
}

// CloseRoom sends a final "closed" message and disconnects every client of
// the room.
func (b *Broadcaster) CloseRoom(code string) {
	closed := Message{Event: string(events.KindClosed), Data: []byte(`{"code":"` + code + `"}`)}
	b.Mu.Lock()
	for ch := range b.Clients[code] {
		select {
		case ch <- closed:
		default:
		}
		close(ch)
	}
	delete(b.Clients, code)
	delete(b.last, code)
	b.Mu.Unlock()

	for _, s := range b.sinks {
		s.CloseRoom(code)
	}
}
