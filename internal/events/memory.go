package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/quizmind/internal/logger"
)

const forwarderBuffer = 64

// memoryBus delivers messages within the process.
type memoryBus struct {
	log *logger.Logger

	mu     sync.RWMutex
	subs   map[int]chan Message
	nextID int
	closed bool
}

// NewMemoryBus returns an in-process bus. A full forwarder buffer drops
// the message for that forwarder only.
func NewMemoryBus(log *logger.Logger) Bus {
	return &memoryBus{
		log:  log.With("service", "MemoryBus"),
		subs: make(map[int]chan Message),
	}
}

func (b *memoryBus) Publish(_ context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory bus closed")
	}
	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.log.Warn("forwarder buffer full, dropping message", "forwarder", id, "event", msg.Event)
		}
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory bus closed")
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Message, forwarderBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.remove(id)
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				onMsg(m)
			}
		}
	}()
	return nil
}

func (b *memoryBus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
