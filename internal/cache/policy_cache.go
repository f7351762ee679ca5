package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

const policyKey = "wordtest:reward_policy"

// PolicyCache keeps the reward policy in Redis so every grant does not need
// to read the settings table. Failures are logged and treated as misses.
type PolicyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPolicyCache connects to Redis at addr. It returns nil and no error when
// addr is empty, which disables caching.
func NewPolicyCache(ctx context.Context, addr string, ttl time.Duration) (*PolicyCache, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PolicyCache{client: client, ttl: ttl}, nil
}

// Get returns the cached policy, if any
func (c *PolicyCache) Get(ctx context.Context) (*models.RewardPolicy, bool) {
	data, err := c.client.Get(ctx, policyKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Warning: redis GET %s failed: %v", policyKey, err)
		return nil, false
	}

	var policy models.RewardPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		log.Printf("Warning: discarding unreadable cached policy: %v", err)
		return nil, false
	}
	return &policy, true
}

// Set stores the policy
func (c *PolicyCache) Set(ctx context.Context, policy models.RewardPolicy) {
	data, err := json.Marshal(policy)
	if err != nil {
		log.Printf("Warning: failed to encode policy for cache: %v", err)
		return
	}
	if err := c.client.Set(ctx, policyKey, data, c.ttl).Err(); err != nil {
		log.Printf("Warning: redis SET %s failed: %v", policyKey, err)
	}
}

// Invalidate drops the cached policy
func (c *PolicyCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, policyKey).Err(); err != nil {
		log.Printf("Warning: redis DEL %s failed: %v", policyKey, err)
	}
}

// Close closes the Redis connection
func (c *PolicyCache) Close() error {
	return c.client.Close()
}
