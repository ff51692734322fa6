package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime"
)

const DefaultRedisChannel = "learn2go:sse"

type RedisConfig struct {
	Addr    string
	Channel string
}

const (
	redisDialTimeout = 5 * time.Second
	redisPingTimeout = 5 * time.Second
)

// redisBus carries SSEMessages as JSON over one pub/sub channel so every instance's hub sees
// every message.
type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func (c RedisConfig) normalized() (RedisConfig, error) {
	c.Addr = strings.TrimSpace(c.Addr)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Addr == "" {
		return c, fmt.Errorf("missing redis address")
	}
	if c.Channel == "" {
		c.Channel = DefaultRedisChannel
	}
	return c, nil
}

func NewRedisBus(cfg RedisConfig, log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Addr, DialTimeout: redisDialTimeout})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &redisBus{
		log:     log.With("service", "RedisBus", "channel", cfg.Channel),
		rdb:     rdb,
		channel: cfg.Channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Event, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes before returning, so a Publish that follows is never missed.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return errNoForwarder
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	defer sub.Close()
	in := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg, err := decodeMessage(m.Payload)
			if err != nil {
				b.log.Warn("Dropping undecodable bus payload", "error", err)
				continue
			}
			onMsg(msg)
		}
	}
}

func decodeMessage(payload string) (realtime.SSEMessage, error) {
	var msg realtime.SSEMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, err
	}
	if msg.Channel == "" {
		return msg, fmt.Errorf("message without channel")
	}
	return msg, nil
}

func (b *redisBus) Close() error { return b.rdb.Close() }
