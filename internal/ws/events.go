package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventPatientAdded    = "patient_added"
	EventQueueReordered  = "queue_reordered"
	EventPatientAdvanced = "patient_advanced"
	EventQueueNormalized = "queue_normalized"

	channelPrefix = "clinic:queue:"
)

// Event is what websocket clients receive after a queue changed.
type Event struct {
	EventType string      `json:"event_type"`
	QueueID   string      `json:"queue_id"`
	Data      interface{} `json:"data,omitempty"`
}

func NewEvent(eventType string, queueID uint, data interface{}) Event {
	return Event{
		EventType: eventType,
		QueueID:   strconv.FormatUint(uint64(queueID), 10),
		Data:      data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LocalPublisher delivers straight into this process' hub.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	p.hub.Broadcast(ev.QueueID, payload)
	return nil
}

// RedisPublisher sends events through Redis so that every instance's Relay
// picks them up, including the one that published.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(ev.QueueID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func Channel(queueID string) string {
	return channelPrefix + queueID
}

// Relay forwards queue events from Redis into the local hub.
type Relay struct {
	client *redis.Client
	hub    *Hub
	log    zerolog.Logger
	sub    *redis.PubSub
	done   chan struct{}
}

func NewRelay(client *redis.Client, hub *Hub, log zerolog.Logger) *Relay {
	return &Relay{
		client: client,
		hub:    hub,
		log:    log.With().Str("component", "ws_relay").Logger(),
		done:   make(chan struct{}),
	}
}

// Start subscribes and returns once Redis has confirmed the subscription.
func (r *Relay) Start(ctx context.Context) error {
	r.sub = r.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := r.sub.Receive(ctx); err != nil {
		_ = r.sub.Close()
		return fmt.Errorf("subscribe queue events: %w", err)
	}

	go func() {
		defer close(r.done)
		for msg := range r.sub.Channel() {
			queueID := strings.TrimPrefix(msg.Channel, channelPrefix)
			r.hub.Broadcast(queueID, []byte(msg.Payload))
		}
		r.log.Info().Msg("queue event relay stopped")
	}()
	return nil
}

// Close ends the subscription and waits for the forwarding goroutine.
func (r *Relay) Close() error {
	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	<-r.done
	return err
}
