package redisclient

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"f2v2f-service/pkg/config"
)

func TestWrapAppliesPrefixAndTTL(t *testing.T) {
	raw := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	c := Wrap(raw, config.RedisConfig{KeyPrefix: "f2v2f:job:"})
	defer c.Close()

	if got := c.StatusKey("abc"); got != "f2v2f:job:abc" {
		t.Fatalf("key = %s", got)
	}
	if c.StatusTTL() != defaultStatusTTL {
		t.Fatalf("ttl = %s", c.StatusTTL())
	}
	if c.Raw() != raw {
		t.Fatal("raw client not exposed")
	}
}

func TestBuildOptions(t *testing.T) {
	opts := buildOptions(config.RedisConfig{Host: "redis", Port: 6380, PoolSize: 7, EnableTLS: true, ReadTimeout: time.Second})
	if opts.Addr != "redis:6380" || opts.PoolSize != 7 || opts.TLSConfig == nil {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.ReadTimeout != time.Second || opts.WriteTimeout != 3*time.Second {
		t.Fatalf("timeouts = %s %s", opts.ReadTimeout, opts.WriteTimeout)
	}
}
