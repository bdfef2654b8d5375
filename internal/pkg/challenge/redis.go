package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWindowScript runs INCR and bounds the counter in the same server-side step,
// so a crash between the two can never leave a counter that lives forever.
// A counter found without expiry (PTTL -1) is bounded as well.
var incrWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

var expireNXScript = redis.NewScript(`
if redis.call('PTTL', KEYS[1]) == -1 then
	return redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return 0
`)

var takeScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Redis is a Store backed by a shared Redis deployment.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis returns a Store that talks to client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Set stores value under key with SET ... PX ttl.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Get returns the value under key or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("get", err)
	}
	return val, nil
}

// Delete removes key. A missing key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Take deletes key in one script call when it still holds value.
func (r *Redis) Take(ctx context.Context, key, value string) (bool, error) {
	n, err := takeScript.Run(ctx, r.client, []string{key}, value).Int64()
	if err != nil {
		return false, unavailable("take", err)
	}
	return n == 1, nil
}

// Incr runs INCR; a non-numeric value yields ErrNotInteger.
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		if isNotInteger(err) {
			return 0, ErrNotInteger
		}
		return 0, unavailable("incr", err)
	}
	return n, nil
}

// ExpireNX sets ttl only on a key that has no expiry yet.
func (r *Redis) ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n, err := expireNXScript.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, unavailable("expire_nx", err)
	}
	return n == 1, nil
}

// TTL returns the remaining lifetime, NoExpiry, or ErrNotFound.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, unavailable("ttl", err)
	}

	// go-redis passes the -1/-2 sentinels through unscaled.
	switch d {
	case -2:
		return 0, ErrNotFound
	case -1:
		return NoExpiry, nil
	default:
		return d, nil
	}
}

// IncrWindow increments key and bounds it to window in a single script call.
func (r *Redis) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		if isNotInteger(err) {
			return 0, 0, ErrNotInteger
		}
		return 0, 0, unavailable("incr_window", err)
	}
	if len(res) != 2 {
		return 0, 0, unavailable("incr_window", fmt.Errorf("unexpected script reply of %d values", len(res)))
	}

	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}

func isNotInteger(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.Contains(rerr.Error(), "not an integer")
}
