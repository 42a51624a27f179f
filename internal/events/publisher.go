package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers events to subscribers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LocalPublisher feeds events straight into an in-process hub
type LocalPublisher struct {
	hub *Hub
}

// NewLocalPublisher creates a publisher for hub
func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

// Publish queues the event on the hub
func (p *LocalPublisher) Publish(ctx context.Context, event Event) error {
	if !p.hub.Broadcast(event) {
		return fmt.Errorf("event hub buffer full, dropped %s", event.Type)
	}
	return nil
}

// RedisPublisher publishes events on a Redis channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

// Publish encodes the event and publishes it on the channel
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", event.Type, p.channel, err)
	}
	return nil
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}
