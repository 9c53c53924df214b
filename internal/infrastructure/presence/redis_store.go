package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one TTL key per live connection
// (presence:{userID}:{connID}) so every instance of a horizontally
// scaled deployment sees the same online set. Heartbeats refresh the
// TTL; a crashed instance's entries simply expire.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func connKey(userID, connID string) string {
	return fmt.Sprintf("presence:%s:%s", userID, connID)
}

func lastSeenKey(userID string) string {
	return fmt.Sprintf("presence:lastseen:%s", userID)
}

func (s *RedisStore) Touch(ctx context.Context, userID, connID string, ttl time.Duration) error {
	return s.client.Set(ctx, connKey(userID, connID), time.Now().Unix(), ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, userID, connID string) error {
	if err := s.client.Del(ctx, connKey(userID, connID)).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, lastSeenKey(userID), time.Now().UTC().Format(time.RFC3339), 0).Err()
}

func (s *RedisStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	pattern := fmt.Sprintf("presence:%s:*", userID)
	iter := s.client.Scan(ctx, 0, pattern, 1).Iterator()
	for iter.Next(ctx) {
		return true, nil
	}
	return false, iter.Err()
}

func (s *RedisStore) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, lastSeenKey(userID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}
