package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FeedTTL bounds how stale a cached feed page can get.
const FeedTTL = 2 * time.Minute

// FeedKey builds the cache key for one page of the global feed.
func FeedKey(page, limit int) string {
	return fmt.Sprintf("feed:page:%d:limit:%d", page, limit)
}

// GetJSON reads key and unmarshals it into v. The bool reports a hit.
func (rc *RedisClient) GetJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	if rc == nil {
		return false, nil
	}
	raw, err := rc.Get(ctx, key)
	if IsNil(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with a TTL.
func (rc *RedisClient) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if rc == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return rc.SetEx(ctx, key, data, ttl)
}

// InvalidateFeed drops every cached feed page. Called after any write
// that changes what the feed shows.
func (rc *RedisClient) InvalidateFeed(ctx context.Context) error {
	if rc == nil {
		return nil
	}
	keys, err := rc.Keys(ctx, "feed:page:*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.Del(ctx, keys...)
}
