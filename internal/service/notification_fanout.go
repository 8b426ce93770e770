package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const fanoutRetryDelay = time.Second

// notificationFanout carries encoded notification events between API nodes so a stream
// opened on one node sees notifications created on another.
type notificationFanout interface {
	Name() string
	Send(ctx context.Context, payload []byte) error
	// Listen delivers payloads until ctx ends. It returns once the subscription is live.
	Listen(ctx context.Context, deliver func([]byte)) error
}

// newNotificationFanout prefers NATS and falls back to Redis pub/sub. A single-node
// deployment with neither gets nil and only serves local subscribers.
func newNotificationFanout(redisClient *redis.Client, natsConn *nats.Conn, channelBase string) notificationFanout {
	if channelBase == "" {
		return nil
	}
	switch {
	case natsConn != nil:
		return &natsFanout{conn: natsConn, subject: strings.ReplaceAll(channelBase, ":", ".") + ".notifications"}
	case redisClient != nil:
		return &redisFanout{client: redisClient, channel: channelBase + ":notifications"}
	default:
		return nil
	}
}

type natsFanout struct {
	conn    *nats.Conn
	subject string
}

func (f *natsFanout) Name() string { return "nats" }

func (f *natsFanout) Send(_ context.Context, payload []byte) error {
	return f.conn.Publish(f.subject, payload)
}

func (f *natsFanout) Listen(ctx context.Context, deliver func([]byte)) error {
	sub, err := f.conn.Subscribe(f.subject, func(msg *nats.Msg) {
		deliver(msg.Data)
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

type redisFanout struct {
	client  *redis.Client
	channel string
}

func (f *redisFanout) Name() string { return "redis" }

func (f *redisFanout) Send(ctx context.Context, payload []byte) error {
	return f.client.Publish(ctx, f.channel, payload).Err()
}

func (f *redisFanout) Listen(ctx context.Context, deliver func([]byte)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	go func() {
		defer func() { _ = pubsub.Close() }()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(fanoutRetryDelay):
				}
				continue
			}
			deliver([]byte(msg.Payload))
		}
	}()
	return nil
}
