package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunCache maps a workload content digest to the RunID that last analyzed
// it, so resubmitting byte-identical workload content within a TTL window
// returns the prior run instead of re-exploring. Modeled as an interface
// (rather than a concrete *redis.Client dependency throughout the W4
// handlers) so tests can substitute a fake, the way pkg/loadbalancer's
// LoadBalancer interface lets MockLoadBalancer stand in for a real one.
type RunCache interface {
	Get(ctx context.Context, digest string) (runID string, ok bool, err error)
	Set(ctx context.Context, digest, runID string, ttl time.Duration) error
	PublishProgress(ctx context.Context, runID string, payload []byte) error
	SubscribeProgress(ctx context.Context, runID string) (<-chan []byte, func(), error)
}

// RedisCache is the production RunCache, backed by go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// RedisConfig configures the Redis connection used for caching and
// progress pub/sub.
type RedisConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"poolSize" json:"poolSize"`
	DialTimeout  time.Duration `yaml:"dialTimeout" json:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: ping redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func digestKey(digest string) string { return "schedcheck:runid:" + digest }
func progressChannel(runID string) string { return "schedcheck:progress:" + runID }

func (c *RedisCache) Get(ctx context.Context, digest string) (string, bool, error) {
	runID, err := c.client.Get(ctx, digestKey(digest)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: cache get: %w", err)
	}
	return runID, true, nil
}

func (c *RedisCache) Set(ctx context.Context, digest, runID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, digestKey(digest), runID, ttl).Err(); err != nil {
		return fmt.Errorf("store: cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) PublishProgress(ctx context.Context, runID string, payload []byte) error {
	return c.client.Publish(ctx, progressChannel(runID), payload).Err()
}

func (c *RedisCache) SubscribeProgress(ctx context.Context, runID string) (<-chan []byte, func(), error) {
	sub := c.client.Subscribe(ctx, progressChannel(runID))
	ch := make(chan []byte, 16)
	go func() {
		for msg := range sub.Channel() {
			ch <- []byte(msg.Payload)
		}
		close(ch)
	}()
	return ch, func() { sub.Close() }, nil
}

// Close releases the underlying Redis connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
