package resource

import (
	"sync"

	"f2v2f-service/pkg/assert"
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
	"f2v2f-service/pkg/redisclient"
)

var (
	redisResourceOnce sync.Once
	redisSingleton    *RedisResource
)

// RedisResource 任务状态镜像使用的 Redis 连接
type RedisResource struct {
	client *redisclient.Client
}

// DefaultRedisResource returns the global Redis resource instance.
func DefaultRedisResource() *RedisResource {
	assert.NotCircular()
	redisResourceOnce.Do(func() {
		redisSingleton = &RedisResource{}
	})
	assert.NotNil(redisSingleton)
	return redisSingleton
}

// MustOpen establishes the Redis connection using global configuration.
func (r *RedisResource) MustOpen() {
	if r.client != nil {
		return
	}

	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized")
	}
	if !cfg.Redis.Enabled {
		return
	}

	client, err := redisclient.New(cfg.Redis)
	if err != nil {
		panic("failed to connect redis: " + err.Error())
	}

	r.client = client
	logger.Info("Redis resource initialized", map[string]interface{}{
		"addr":       cfg.Redis.GetRedisAddr(),
		"key_prefix": cfg.Redis.KeyPrefix,
		"status_ttl": client.StatusTTL().String(),
	})
}

// Close tidies up the underlying Redis client.
func (r *RedisResource) Close() {
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			logger.Warnf("Close redis failed error=%v", err)
		}
		r.client = nil
	}
}

// Client 任务状态客户端，未启用时为 nil
func (r *RedisResource) Client() *redisclient.Client {
	return r.client
}

// RedisResourcePlugin wires the resource into the manager.
type RedisResourcePlugin struct{}

// Name identifies the plugin slot.
func (p *RedisResourcePlugin) Name() string {
	return "redis"
}

// MustCreateResource returns the singleton Redis resource for registration.
func (p *RedisResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultRedisResource()
}
