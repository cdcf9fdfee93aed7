// Package events carries domain events between the core and the real-time
// layer. Delivery is best-effort on every backend.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quizmind/internal/config"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
)

// LeaderboardUpdate is published after a leaderboard entry is upserted.
const LeaderboardUpdate = "leaderboard:update"

// Message is one published event.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewMessage encodes data as the payload of event.
func NewMessage(event string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Message{Event: event, Data: raw}, nil
}

// LeaderboardUpdateData is the payload of LeaderboardUpdate.
type LeaderboardUpdateData struct {
	Topic string                  `json:"topic"`
	Entry *model.LeaderboardEntry `json:"entry"`
	At    time.Time               `json:"at"`
}

// Bus publishes messages and forwards them to local listeners.
type Bus interface {
	// Publish sends msg to every forwarder, including those in other
	// processes when the backend is shared.
	Publish(ctx context.Context, msg Message) error

	// StartForwarder calls onMsg for every message until ctx is done.
	StartForwarder(ctx context.Context, onMsg func(m Message)) error

	Close() error
}

// New builds the bus selected by cfg.Kind.
func New(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch cfg.Kind {
	case "", "memory":
		return NewMemoryBus(log), nil
	case "redis":
		return NewRedisBus(cfg.RedisAddr, cfg.RedisChannel, log)
	case "amqp":
		return NewAMQPBus(cfg.AMQPURL, cfg.AMQPExchange, log)
	default:
		return nil, fmt.Errorf("unknown event bus %q", cfg.Kind)
	}
}
