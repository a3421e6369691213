package realtime

import (
	"context"
	"encoding/json"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultBridgeTopic = "localsocial_change_events"

type envelope struct {
	Origin string            `json:"origin"`
	Event  model.ChangeEvent `json:"event"`
}

// RedisBridge forwards the events published on the local hub to a redis
// pub/sub topic and replays the events of other instances into the local hub.
// It runs as an engine module.
type RedisBridge struct {
	hub        *Hub
	client     *redis.Client
	topic      string
	instanceID string
}

func NewRedisBridge(hub *Hub, client *redis.Client, topic string) *RedisBridge {
	if topic == "" {
		topic = DefaultBridgeTopic
	}
	return &RedisBridge{
		hub:        hub,
		client:     client,
		topic:      topic,
		instanceID: uuid.New().String(),
	}
}

func (b *RedisBridge) Name() string {
	return "redis_bridge"
}

func (b *RedisBridge) RunModule(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.topic)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before forwarding anything.
	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "cannot subscribe to redis topic "+b.topic)
	}

	remove := b.hub.OnPublish(b.forward)
	defer remove()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis pub/sub channel closed")
			}
			b.replay(msg.Payload)
		}
	}
}

func (b *RedisBridge) forward(ctx context.Context, event model.ChangeEvent) {
	data, err := json.Marshal(envelope{Origin: b.instanceID, Event: event})
	if err != nil {
		Log.WithError(err).Error("cannot encode change event for redis")
		return
	}
	if err := b.client.Publish(ctx, b.topic, data).Err(); err != nil {
		Log.WithError(err).Errorf("failed to forward change event on %s to redis", event.Channel)
	}
}

func (b *RedisBridge) replay(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		Log.WithError(err).Error("dropping malformed redis change event")
		return
	}
	if env.Origin == b.instanceID {
		return
	}
	if err := b.hub.deliver(env.Event); err != nil {
		Log.WithError(err).Errorf("cannot replay change event on %s", env.Event.Channel)
	}
}
