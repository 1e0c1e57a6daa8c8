package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "tutorhub.changes."

// RedisFeed is the cross-process Notifier. Mutations publish on a channel
// keyed by table name; a background listener forwards remote notices into
// the local bus so subscribers cannot tell where a change originated.
type RedisFeed struct {
	client *redis.Client
	bus    *Bus
	logger *slog.Logger
	tables []string
}

// NewRedisFeed builds a feed listening on the given tables. Run must be
// started for remote notifications to arrive; local publishes are forwarded
// to Redis and come back through the same listener.
func NewRedisFeed(client *redis.Client, logger *slog.Logger, tables ...string) *RedisFeed {
	return &RedisFeed{
		client: client,
		bus:    NewBus(),
		logger: logger,
		tables: tables,
	}
}

func (f *RedisFeed) Publish(ctx context.Context, table string) error {
	if err := f.client.Publish(ctx, channelPrefix+table, "changed").Err(); err != nil {
		return fmt.Errorf("publish change notice: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(table string, fn func()) Subscription {
	return f.bus.Subscribe(table, fn)
}

// Run consumes the Redis subscription until the context is cancelled. A
// dropped connection is retried by go-redis internally; messages published
// while disconnected are lost, which the re-fetch model tolerates.
func (f *RedisFeed) Run(ctx context.Context) error {
	channels := make([]string, len(f.tables))
	for i, table := range f.tables {
		channels[i] = channelPrefix + table
	}
	pubsub := f.client.Subscribe(ctx, channels...)
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
			table, found := strings.CutPrefix(msg.Channel, channelPrefix)
			if !found || table == "" {
				f.logger.Warn("change notice on unexpected channel", "channel", msg.Channel)
				continue
			}
			f.bus.dispatch(table)
		}
	}
}
