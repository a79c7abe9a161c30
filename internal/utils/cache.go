package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrCacheMiss = errors.New("cache miss")

func GetCacheData[T any](ctx context.Context, rdb redis.Cmdable, cacheKey string) (*T, error) {
	val, err := rdb.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", cacheKey, err)
	}

	var data T
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", cacheKey, err)
	}

	return &data, nil
}

func SetCacheData[T any](ctx context.Context, rdb redis.Cmdable, cacheKey string, data *T, expire time.Duration) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", cacheKey, err)
	}

	return rdb.Set(ctx, cacheKey, bytes, expire).Err()
}

func DeleteCacheData(ctx context.Context, rdb redis.Cmdable, cacheKey string) error {
	return rdb.Del(ctx, cacheKey).Err()
}
