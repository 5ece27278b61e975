// Package bridge forwards bus events across instances through Redis pub/sub,
// so subscribers connected to one replica still see changes committed on
// another. Each instance tags outgoing envelopes with its origin id and skips
// its own messages on the way back in.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rosterhub/internal/event"
	"rosterhub/internal/platform/redis"
)

// DefaultChannel is the Redis pub/sub channel for roster events.
const DefaultChannel = "rosterhub:events"

type envelope struct {
	Origin            string         `json:"origin"`
	Kind              event.Kind     `json:"kind"`
	Activity          string         `json:"activity"`
	Email             string         `json:"email,omitempty"`
	ParticipantsCount int            `json:"participants_count,omitempty"`
	MaxParticipants   int            `json:"max_participants,omitempty"`
	Details           *event.Details `json:"details,omitempty"`
}

// Bridge relays local bus events to Redis and remote envelopes into the local
// bus.
type Bridge struct {
	bus     *event.Bus
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

func New(bus *event.Bus, client *redis.Client, logger *slog.Logger) *Bridge {
	return &Bridge{
		bus:     bus,
		client:  client,
		channel: DefaultChannel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Run pumps events in both directions until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.forwardLocal(ctx) })
	g.Go(func() error { return b.consumeRemote(ctx) })
	return g.Wait()
}

func (b *Bridge) forwardLocal(ctx context.Context) error {
	sub := b.bus.Subscribe()
	defer b.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if e.Remote() {
				continue
			}
			payload, err := json.Marshal(envelope{
				Origin:            b.origin,
				Kind:              e.Kind,
				Activity:          e.Activity,
				Email:             e.Email,
				ParticipantsCount: e.ParticipantsCount,
				MaxParticipants:   e.MaxParticipants,
				Details:           e.Details,
			})
			if err != nil {
				b.logger.ErrorContext(ctx, "bridge: marshal envelope", "error", err.Error())
				continue
			}
			if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
				b.logger.WarnContext(ctx, "bridge: publish to redis failed", "error", err.Error())
			}
		}
	}
}

func (b *Bridge) consumeRemote(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.WarnContext(ctx, "bridge: bad envelope", "error", err.Error())
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.bus.Publish(event.Event{
				Kind:              env.Kind,
				Activity:          env.Activity,
				Email:             env.Email,
				ParticipantsCount: env.ParticipantsCount,
				MaxParticipants:   env.MaxParticipants,
				Details:           env.Details,
			}.AsRemote())
		}
	}
}
