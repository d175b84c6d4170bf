package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "radview:state:"

// RedisStore keeps snapshots as JSON strings with an optional TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore creates a client; no connection is made until first use.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{client: client, ttl: opts.TTL}
}

func redisKey(studyID string) string { return redisKeyPrefix + studyID }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context, studyID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, redisKey(studyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return Decode(data)
}

func (s *RedisStore) Save(ctx context.Context, studyID string, snap *Snapshot) error {
	if err := ValidStudyID(studyID); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(studyID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, studyID string) error {
	n, err := s.client.Del(ctx, redisKey(studyID)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
