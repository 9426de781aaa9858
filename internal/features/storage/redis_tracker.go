package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// appendScript records one arrival and decides completion in a single atomic
// step, so exactly one caller across all processes sees complete=1.
//
// KEYS: names hash, arrival list, completion flag
// ARGV: original name, encoded pair, total, ttl seconds
// Reply: {received, complete, closed}
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[3]) == 1 then
	return {redis.call('HLEN', KEYS[1]), 0, 1}
end
local added = redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
if added == 1 then
	redis.call('RPUSH', KEYS[2], ARGV[1])
end
local n = redis.call('HLEN', KEYS[1])
local complete = 0
local total = tonumber(ARGV[3])
if total > 0 and n >= total then
	if redis.call('SETNX', KEYS[3], '1') == 1 then
		complete = 1
	end
end
local ttl = tonumber(ARGV[4])
if ttl > 0 then
	redis.call('EXPIRE', KEYS[1], ttl)
	redis.call('EXPIRE', KEYS[2], ttl)
	redis.call('EXPIRE', KEYS[3], ttl)
end
return {n, complete, 0}
`)

// RedisSessionTracker shares session state between API instances
type RedisSessionTracker struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSessionTracker(client *redis.Client, ttl time.Duration) *RedisSessionTracker {
	return &RedisSessionTracker{redis: client, ttl: ttl}
}

// The hash tag keeps a session's keys in one cluster slot
func sessionKeys(sessionID string) []string {
	return []string{
		fmt.Sprintf("upload:{%s}:names", sessionID),
		fmt.Sprintf("upload:{%s}:order", sessionID),
		fmt.Sprintf("upload:{%s}:done", sessionID),
	}
}

func (r *RedisSessionTracker) Append(ctx context.Context, sessionID string, pair FilePair, total int) (Progress, error) {
	encoded, err := json.Marshal(pair)
	if err != nil {
		return Progress{}, err
	}

	res, err := appendScript.Run(ctx, r.redis, sessionKeys(sessionID),
		pair.Original, encoded, total, int64(r.ttl.Seconds())).Int64Slice()
	if err != nil {
		return Progress{}, fmt.Errorf("failed to record upload for session %s: %w", sessionID, err)
	}
	if len(res) != 3 {
		return Progress{}, fmt.Errorf("unexpected append reply for session %s: %v", sessionID, res)
	}

	return Progress{
		SessionID: sessionID,
		Received:  int(res[0]),
		Total:     total,
		Complete:  res[1] == 1,
		Closed:    res[2] == 1,
	}, nil
}

func (r *RedisSessionTracker) Snapshot(ctx context.Context, sessionID string) ([]FilePair, error) {
	keys := sessionKeys(sessionID)

	order, err := r.redis.LRange(ctx, keys[1], 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, nil
	}

	values, err := r.redis.HMGet(ctx, keys[0], order...).Result()
	if err != nil {
		return nil, err
	}

	pairs := make([]FilePair, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var pair FilePair
		if err := json.Unmarshal([]byte(raw), &pair); err != nil {
			return nil, fmt.Errorf("corrupt entry %q in session %s: %w", order[i], sessionID, err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (r *RedisSessionTracker) Remove(ctx context.Context, sessionID string) error {
	return r.redis.Del(ctx, sessionKeys(sessionID)...).Err()
}

func (r *RedisSessionTracker) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}
