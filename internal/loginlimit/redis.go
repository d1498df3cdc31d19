// AngelaMos | 2026
// redis.go

package loginlimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loginlimit:"

// Redis stores failures in one sorted set per key, scored by unix millis,
// so several API instances share the same counters.
type Redis struct {
	client *redis.Client
	policy Policy
	now    func() time.Time
}

func NewRedis(client *redis.Client, p Policy) *Redis {
	return &Redis{client: client, policy: p, now: time.Now}
}

func (r *Redis) Check(ctx context.Context, key string) (Result, error) {
	now := r.now()
	k := keyPrefix + key

	if err := r.client.ZRemRangeByScore(
		ctx, k, "-inf", strconv.FormatInt(r.cutoff(now), 10),
	).Err(); err != nil {
		return Result{}, fmt.Errorf("prune attempts: %w", err)
	}

	count, err := r.client.ZCard(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("count attempts: %w", err)
	}
	if count == 0 {
		return Result{}, nil
	}

	oldest, err := r.client.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err != nil {
		return Result{}, fmt.Errorf("read oldest attempt: %w", err)
	}
	if len(oldest) == 0 {
		return Result{}, nil
	}

	first := time.UnixMilli(int64(oldest[0].Score))
	return evaluate(r.policy, int(count), first, now), nil
}

func (r *Redis) RecordFailure(ctx context.Context, key string) error {
	now := r.now()
	k := keyPrefix + key

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(r.cutoff(now), 10))
		pipe.ZAdd(ctx, k, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: uuid.NewString(),
		})
		pipe.PExpire(ctx, k, r.policy.Window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}

func (r *Redis) cutoff(now time.Time) int64 {
	return now.Add(-r.policy.Window).UnixMilli()
}
