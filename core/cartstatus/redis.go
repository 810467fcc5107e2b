package cartstatus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const allCartsKey = "factorysim:carts"

func statusKey(id string) string {
	return fmt.Sprintf("factorysim:cart:%s:status", id)
}

func completedKey(id string) string {
	return fmt.Sprintf("factorysim:cart:%s:completed", id)
}

// RedisStore mirrors cart statuses into Redis so external dashboards can
// read them.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreAddr connects to addr and pings it.
func NewRedisStoreAddr(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

// Close closes the client.
func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) Get(ctx context.Context, id string) (Status, bool, error) {
	data, err := r.client.Get(ctx, statusKey(id)).Bytes()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, err
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, false, err
	}
	st.Completed, err = r.completed(ctx, id)
	return st, true, err
}

func (r *RedisStore) completed(ctx context.Context, id string) (int64, error) {
	n, err := r.client.Get(ctx, completedKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (r *RedisStore) Set(ctx context.Context, st Status) error {
	st.Completed = 0
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, statusKey(st.CartID), data, 0)
	pipe.SAdd(ctx, allCartsKey, st.CartID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) IncrementCompleted(ctx context.Context, id string) (int64, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, completedKey(id))
	pipe.SAdd(ctx, allCartsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *RedisStore) List(ctx context.Context, f Filter) ([]Status, error) {
	ids, err := r.client.SMembers(ctx, allCartsKey).Result()
	if err != nil {
		return nil, err
	}
	res := make([]Status, 0, len(ids))
	for _, id := range ids {
		st, ok, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			st = Status{CartID: id}
			if st.Completed, err = r.completed(ctx, id); err != nil {
				return nil, err
			}
		}
		if f.match(st) {
			res = append(res, st)
		}
	}
	sortByID(res)
	return res, nil
}

// Remove deletes every key of a cart.
func (r *RedisStore) Remove(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, statusKey(id), completedKey(id))
	pipe.SRem(ctx, allCartsKey, id)
	_, err := pipe.Exec(ctx)
	return err
}
