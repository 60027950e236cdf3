package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/service"
)

// DefaultRedisKeyPrefix namespaces session records in a shared Redis
const DefaultRedisKeyPrefix = "klondike:session:"

// RedisPersistence implements SessionPersistence on top of Redis string keys.
// Each session is stored as the same JSON record FilePersistence writes.
type RedisPersistence struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	codec   recordCodec
}

// RedisOption customizes a RedisPersistence
type RedisOption func(*RedisPersistence)

// WithKeyPrefix overrides DefaultRedisKeyPrefix
func WithKeyPrefix(prefix string) RedisOption {
	return func(rp *RedisPersistence) {
		rp.prefix = prefix
	}
}

// WithTTL expires idle session records. Every save refreshes the TTL.
func WithTTL(ttl time.Duration) RedisOption {
	return func(rp *RedisPersistence) {
		rp.ttl = ttl
	}
}

// WithLogger sets the logger used for load warnings
func WithLogger(l logrus.FieldLogger) RedisOption {
	return func(rp *RedisPersistence) {
		rp.codec.log = l
	}
}

// NewRedisPersistence creates a Redis-backed persistence layer and checks the
// connection with PING
func NewRedisPersistence(ctx context.Context, client redis.UniversalClient, configManager service.ConfigManager, opts ...RedisOption) (*RedisPersistence, error) {
	rp := &RedisPersistence{
		client:  client,
		prefix:  DefaultRedisKeyPrefix,
		timeout: 5 * time.Second,
		codec:   recordCodec{configs: configManager, log: logrus.StandardLogger()},
	}
	for _, opt := range opts {
		opt(rp)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rp, nil
}

func (rp *RedisPersistence) key(id string) string {
	return rp.prefix + id
}

func (rp *RedisPersistence) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rp.timeout)
}

// Save stores the session record
func (rp *RedisPersistence) Save(session *service.Session) error {
	jsonData, err := rp.codec.encode(session)
	if err != nil {
		return err
	}

	ctx, cancel := rp.context()
	defer cancel()
	if err := rp.client.Set(ctx, rp.key(session.ID), jsonData, rp.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

// Load retrieves a session record
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := rp.context()
	defer cancel()

	jsonData, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return rp.codec.decode(jsonData)
}

// Delete removes a session record
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := rp.context()
	defer cancel()

	n, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs using SCAN
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := rp.context()
	defer cancel()

	var ids []string
	iter := rp.client.Scan(ctx, 0, rp.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), rp.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session record exists
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := rp.context()
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	return err == nil && n > 0
}
