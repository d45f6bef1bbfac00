package redisclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"f2v2f-service/pkg/config"
)

const defaultStatusTTL = 24 * time.Hour

// Client 任务状态镜像使用的 Redis 客户端，键统一加前缀
type Client struct {
	native    *redis.Client
	keyPrefix string
	statusTTL time.Duration
}

// New 按配置建立连接并 Ping 校验
func New(cfg config.RedisConfig) (*Client, error) {
	cli := redis.NewClient(buildOptions(cfg))
	ctx, cancel := context.WithTimeout(context.Background(), pickDuration(cfg.DialTimeout, 5*time.Second))
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return Wrap(cli, cfg), nil
}

// Wrap 复用已有连接
func Wrap(cli *redis.Client, cfg config.RedisConfig) *Client {
	return &Client{
		native:    cli,
		keyPrefix: cfg.KeyPrefix,
		statusTTL: pickDuration(cfg.StatusTTL, defaultStatusTTL),
	}
}

func buildOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pickDuration(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:  pickDuration(cfg.ReadTimeout, 3*time.Second),
		WriteTimeout: pickDuration(cfg.WriteTimeout, 3*time.Second),
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// StatusKey 任务状态 hash 的键
func (c *Client) StatusKey(jobID string) string {
	return c.keyPrefix + jobID
}

// StatusTTL 状态 hash 的过期时间
func (c *Client) StatusTTL() time.Duration {
	return c.statusTTL
}

// PutStatus 在一个事务流水线里写入字段并刷新过期时间
func (c *Client) PutStatus(ctx context.Context, jobID string, fields map[string]interface{}) error {
	key := c.StatusKey(jobID)
	_, err := c.native.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, c.statusTTL)
		return nil
	})
	return err
}

// Raw exposes the underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	return c.native
}

func (c *Client) Close() error {
	return c.native.Close()
}

func pickDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
