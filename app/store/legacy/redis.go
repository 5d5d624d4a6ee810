package legacy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
)

// RedisKV 每个命名空间对应一个 redis hash
type RedisKV struct {
	client redis.UniversalClient
	key    string
}

func NewRedisKV(client redis.UniversalClient, namespace string) *RedisKV {
	return &RedisKV{
		client: client,
		key:    fmt.Sprintf("pageassist:legacy:%s", namespace),
	}
}

func (r *RedisKV) wrap(trace string, err error, write bool) error {
	if stderrors.Is(err, redis.Nil) {
		return errors.New(trace, i18n.ERROR_NOT_FOUND, err).WithKind(errors.KindNotFound)
	}
	return wrapError(trace, err, write)
}

func (r *RedisKV) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	res := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return res, nil
	}

	values, err := r.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, r.wrap("RedisKV.Get.HMGet", err, false)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		res[keys[i]] = json.RawMessage(s)
	}
	return res, nil
}

func (r *RedisKV) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, r.wrap("RedisKV.GetAll.HGetAll", err, false)
	}
	res := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		res[k] = json.RawMessage(v)
	}
	return res, nil
}

func (r *RedisKV) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if len(items) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(items))
	for k, v := range items {
		values[k] = string(v)
	}
	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		return r.wrap("RedisKV.Set.HSet", err, true)
	}
	return nil
}

func (r *RedisKV) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return r.wrap("RedisKV.Remove.HDel", err, true)
	}
	return nil
}

func (r *RedisKV) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return r.wrap("RedisKV.Clear.Del", err, true)
	}
	return nil
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
