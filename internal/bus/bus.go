package bus

import (
	"log"
	"sync"

	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

const (
	subscriberBufSize = 64
	tapBufSize        = 256
)

// Bus is the observable event bus. Every pipeline stage publishes progress
// events through it; the trace log receives a read-only tap of everything.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]chan types.Event
	tapCh       chan types.Event
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[types.EventType][]chan types.Event),
		tapCh:       make(chan types.Event, tapBufSize),
	}
}

// Publish fans out evt to all subscribers of evt.Type and to the tap channel.
// Non-blocking: if a subscriber's channel is full, the event is dropped with
// a warning. Planning never stalls on a slow display or trace writer.
func (b *Bus) Publish(evt types.Event) {
	b.mu.RLock()
	subs := b.subscribers[evt.Type]
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			log.Printf("[BUS] WARNING: subscriber channel full for type=%s from=%s — event dropped", evt.Type, evt.From)
		}
	}

	select {
	case b.tapCh <- evt:
	default:
		log.Printf("[BUS] WARNING: tap channel full — trace event dropped type=%s", evt.Type)
	}
}

// Subscribe returns a receive-only channel that delivers events of type t.
// Each call creates a new independent subscriber channel.
func (b *Bus) Subscribe(t types.EventType) <-chan types.Event {
	ch := make(chan types.Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[t] = append(b.subscribers[t], ch)
	b.mu.Unlock()
	return ch
}

// Tap returns the read-only tap channel carrying every published event.
// Only one consumer should call this; repeated calls return the same channel.
func (b *Bus) Tap() <-chan types.Event {
	return b.tapCh
}
