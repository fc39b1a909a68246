package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/redis/go-redis/v9"
)

var _ Broadcaster = (*Bridge)(nil)

const DefaultBridgeChannel = "sanskrithi:changes"

type changeMessage struct {
	Origin     string `json:"origin"`
	Collection string `json:"collection"`
}

// Bridge relays collection change notifications between instances sharing one
// database through Redis pub/sub. Messages published by this instance are ignored
// on receipt since local writes already notify the hub directly.
type Bridge struct {
	client      *redis.Client
	hub         *Hub
	channel     string
	origin      string
	collections map[string]struct{}

	minBackoff time.Duration
	maxBackoff time.Duration

	readyOnce sync.Once
	ready     chan struct{}
}

// NewBridge relays changes for the given collections; messages naming any
// other collection are dropped.
func NewBridge(client *redis.Client, hub *Hub, channel string, collections []string) *Bridge {
	if channel == "" {
		channel = DefaultBridgeChannel
	}

	known := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		known[c] = struct{}{}
	}

	return &Bridge{
		client:      client,
		hub:         hub,
		channel:     channel,
		origin:      uuid.NewString(),
		collections: known,
		minBackoff:  500 * time.Millisecond,
		maxBackoff:  30 * time.Second,
		ready:       make(chan struct{}),
	}
}

func (b *Bridge) Origin() string {
	return b.origin
}

// Ready is closed once the first subscription to the channel is confirmed
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bridge) Publish(ctx context.Context, collection string) error {
	payload, err := json.Marshal(changeMessage{Origin: b.origin, Collection: collection})
	if err != nil {
		return fmt.Errorf("failed to encode change message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", collection, err)
	}
	return nil
}

// Run listens until ctx is cancelled, reconnecting with backoff. The returned
// channel receives once the listener has shut down.
func (b *Bridge) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{}, 1)

	go func() {
		defer func() {
			slog.Debug("Change bridge stopped", "channel", b.channel)
			done <- struct{}{}
		}()

		boff := backoff.Backoff{
			Min:    b.minBackoff,
			Max:    b.maxBackoff,
			Jitter: true,
		}

		for {
			err := b.listen(ctx)
			if ctx.Err() != nil {
				return
			}

			dur := boff.Duration()
			slog.Error("Change bridge disconnected", "channel", b.channel, "error", err, "retry_in", dur)

			timer := time.NewTimer(dur)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()

	return done
}

func (b *Bridge) listen(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	slog.Info("Change bridge subscribed", "channel", b.channel, "origin", b.origin)
	b.readyOnce.Do(func() { close(b.ready) })

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("subscription channel closed")
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *Bridge) handle(payload string) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("Ignoring malformed change message", "error", err)
		return
	}
	if msg.Origin == b.origin {
		return
	}
	if _, ok := b.collections[msg.Collection]; !ok {
		slog.Debug("Ignoring change for unknown collection", "collection", msg.Collection, "origin", msg.Origin)
		return
	}

	b.hub.Notify(msg.Collection)
}
