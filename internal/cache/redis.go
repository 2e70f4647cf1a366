package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
)

const keyPrefix = "infera:"

// redisCache 基于 rueidis 的缓存
type redisCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(cfg config.RedisConfig) (rueidis.Client, error) {
	opt := rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
		// 只做简单的 GET/SET,不需要客户端缓存
		DisableCache: true,
	}
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return client, nil
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(client rueidis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

// New 根据配置选择缓存实现
func New(cfg config.RedisConfig) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if !cfg.Enabled {
		return NewMemoryCache(ttl), nil
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(client, ttl), nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := c.client.B().Get().Key(keyPrefix + key).Build()
	value, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) error {
	var cmd rueidis.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(keyPrefix + key).Value(rueidis.BinaryString(value)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(keyPrefix + key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(keyPrefix + key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Incr(ctx context.Context, key string) (int64, error) {
	cmd := c.client.B().Incr().Key(keyPrefix + key).Build()
	n, err := c.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to incr %s: %w", key, err)
	}
	return n, nil
}

func (c *redisCache) Close() {
	c.client.Close()
}
