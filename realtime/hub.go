// Package realtime delivers change events of rows to interested subscribers.
//
// Events are routed by channel name, one channel per recipient scope:
// "notifications:<user id>" and "messages:<conversation id>". A Hub is local
// to the process, RedisBridge connects the hubs of several instances.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const DefaultBufferSize = 100

var ErrSubscriptionClosed = errors.New("subscription closed")

// PublishHook observes events published on this instance.
type PublishHook func(ctx context.Context, event model.ChangeEvent)

// Hub fans change events out to subscriptions. It is safe for concurrent use.
type Hub struct {
	bus *gochannel.GoChannel

	// subscriptions maps subscription id to the live subscription, entries are
	// removed once the subscription context is done.
	subscriptions map[string]*Subscription
	hooks         map[string]PublishHook
	mu            sync.RWMutex

	// publishMu serializes publishing so that every channel keeps the order
	// events were published in.
	publishMu  sync.Mutex
	bufferSize int64
	published  uint64
}

func NewHub(bufferSize int64) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		bus: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 1,
				// Subscriptions ack as soon as the event is in their own buffer,
				// so a slow consumer never blocks publishing.
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NewStdLogger(false, false),
		),
		bufferSize:    bufferSize,
		subscriptions: make(map[string]*Subscription),
		hooks:         make(map[string]PublishHook),
	}
}

// Publish delivers the event to the subscribers of its channel and to the
// publish hooks. Events published with no subscriber are dropped.
func (h *Hub) Publish(ctx context.Context, event model.ChangeEvent) error {
	if err := h.deliver(event); err != nil {
		return err
	}

	h.mu.RLock()
	hooks := make([]PublishHook, 0, len(h.hooks))
	for _, hook := range h.hooks {
		hooks = append(hooks, hook)
	}
	h.mu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, event)
	}
	return nil
}

// deliver publishes to local subscribers only.
func (h *Hub) deliver(event model.ChangeEvent) error {
	if _, _, err := model.ParseChannel(event.Channel); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	if err := h.bus.Publish(event.Channel, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		return err
	}
	atomic.AddUint64(&h.published, 1)
	return nil
}

// OnPublish registers a hook and returns the function removing it.
func (h *Hub) OnPublish(hook PublishHook) (remove func()) {
	id := uuid.New().String()
	h.mu.Lock()
	h.hooks[id] = hook
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.hooks, id)
	}
}

// Subscribe opens a subscription to channel. It ends when ctx is done or when
// the subscription is closed, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if _, _, err := model.ParseChannel(channel); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	messages, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		ID:      "subscription_" + uuid.New().String(),
		Channel: channel,
		events:  make(chan model.ChangeEvent, h.bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	h.mu.Lock()
	h.subscriptions[sub.ID] = sub
	h.mu.Unlock()

	go sub.pump(messages)
	go h.cleanUp(sub)
	return sub, nil
}

func (h *Hub) cleanUp(sub *Subscription) {
	<-sub.ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscriptions, sub.ID)
	Log.WithField("channel", sub.Channel).Debugf("subscription %s closed", sub.ID)
}

// ActiveCount is the number of open subscriptions.
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions)
}

// PublishedCount is the number of events delivered to the bus so far.
func (h *Hub) PublishedCount() uint64 {
	return atomic.LoadUint64(&h.published)
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.RLock()
	for _, sub := range h.subscriptions {
		sub.cancel()
	}
	h.mu.RUnlock()
	return h.bus.Close()
}

// Subscription is a lazy sequence of change events of a single channel. The
// consumer reads it with Next and stops it with Close.
type Subscription struct {
	ID      string
	Channel string

	events chan model.ChangeEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// pump moves events from the bus into the subscription buffer. Events that do
// not fit are dropped.
func (s *Subscription) pump(messages <-chan *message.Message) {
	defer close(s.events)
	for msg := range messages {
		msg.Ack()

		var event model.ChangeEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			Log.WithError(err).Errorf("dropping malformed change event on %s", s.Channel)
			continue
		}
		select {
		case s.events <- event:
		default:
			Log.WithField("channel", s.Channel).Warnf("subscription %s is full, dropping change event", s.ID)
		}
	}
}

// Next blocks until the next event arrives. It returns ErrSubscriptionClosed
// once the subscription ended, and ctx.Err() when ctx is done first.
func (s *Subscription) Next(ctx context.Context) (model.ChangeEvent, error) {
	if s.ctx.Err() != nil {
		return model.ChangeEvent{}, ErrSubscriptionClosed
	}
	select {
	case <-ctx.Done():
		return model.ChangeEvent{}, ctx.Err()
	case <-s.ctx.Done():
		return model.ChangeEvent{}, ErrSubscriptionClosed
	case event, ok := <-s.events:
		if !ok {
			return model.ChangeEvent{}, ErrSubscriptionClosed
		}
		return event, nil
	}
}

func (s *Subscription) Close() {
	s.cancel()
}
