package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Relay rebroadcasts events published on a Redis channel into a hub, so
// events raised by other processes reach this process's subscribers.
type Relay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *logrus.Entry
}

// NewRelay creates a new relay
func NewRelay(client *redis.Client, channel string, hub *Hub, logger *logrus.Logger) *Relay {
	if logger == nil {
		logger = logrus.New()
	}
	return &Relay{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger.WithFields(logrus.Fields{"component": "events", "channel": channel}),
	}
}

// Run subscribes to the channel and blocks until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before relaying
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("Event relay subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.relay(msg)
		}
	}
}

func (r *Relay) relay(msg *redis.Message) {
	var event Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		r.logger.WithError(err).Warn("Discarding malformed event")
		return
	}
	r.hub.Broadcast(event)
}
