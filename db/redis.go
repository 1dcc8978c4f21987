package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisDB 使用 redis 作为存储，所有 key 加上前缀
type RedisDB struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisDB 连接 redis 并检查连通性
func NewRedisDB(ctx context.Context, addr, password string, database int, prefix string) (*RedisDB, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})
	res, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connect redis %s", addr)
	}
	log.Info().Msgf("Connection res is %v ", res)
	return &RedisDB{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisDB) Has(key string) (bool, error) {
	n, err := r.rdb.Exists(context.Background(), r.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisDB) Get(key string) (string, error) {
	value, err := r.rdb.Get(context.Background(), r.prefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return value, err
}

func (r *RedisDB) List(prefix string) (map[string]string, error) {
	ctx := context.Background()
	res := make(map[string]string)
	iter := r.rdb.Scan(ctx, 0, r.prefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		value, err := r.rdb.Get(ctx, full).Result()
		if err == redis.Nil {
			// 扫描过程中被删除
			continue
		}
		if err != nil {
			return nil, err
		}
		res[strings.TrimPrefix(full, r.prefix)] = value
	}
	return res, iter.Err()
}

func (r *RedisDB) Put(key string, value string) error {
	return r.rdb.Set(context.Background(), r.prefix+key, value, 0).Err()
}

func (r *RedisDB) Delete(key string) error {
	return r.rdb.Del(context.Background(), r.prefix+key).Err()
}

func (r *RedisDB) Close() error {
	return r.rdb.Close()
}
