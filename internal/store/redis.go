package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisReplica mirrors the config into a Redis string key and announces
// writes on a Pub/Sub channel. The message payload is the writer's origin
// id so a replica can ignore its own echoes.
type RedisReplica struct {
	client  *redis.Client
	key     string
	channel string
	origin  string
}

// NewRedisReplica connects to Redis and verifies the connection.
func NewRedisReplica(ctx context.Context, addr, password string, db int, key string) (*RedisReplica, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return newRedisReplica(client, key), nil
}

func newRedisReplica(client *redis.Client, key string) *RedisReplica {
	if key == "" {
		key = Key
	}
	return &RedisReplica{
		client:  client,
		key:     key,
		channel: key + ":changed",
		origin:  uuid.NewString(),
	}
}

// Load implements Replica.
func (r *RedisReplica) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return data, nil
}

// Save implements Replica.
func (r *RedisReplica) Save(ctx context.Context, data []byte) error {
	if len(data) > MaxPayloadBytes {
		return ErrQuotaExceeded
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Publish(ctx, r.channel, r.origin)
		return nil
	})
	if err != nil {
		if isRedisOOM(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Watch implements Replica.
func (r *RedisReplica) Watch(ctx context.Context, fn func(ChangeReason)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription confirmation before reporting the initial sync.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	fn(ReasonInitialSync)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			if msg.Payload == r.origin {
				continue
			}
			fn(ReasonServerChange)
		}
	}
}

// Close implements Replica.
func (r *RedisReplica) Close() error {
	return r.client.Close()
}

func isRedisOOM(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM ")
}
