// Package cache provides internal workflow caching.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// =============================================================================
// 💾 工作流缓存
// =============================================================================

// keyPrefix 所有缓存键的命名空间前缀
const keyPrefix = "flowgraph:workflow:"

// WorkflowCache 基于 Redis 的工作流缓存，整图以 JSON 交换文档存取。
type WorkflowCache struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config 缓存配置
type Config struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr"`

	// 密码
	Password string `yaml:"password" json:"password"`

	// 数据库编号
	DB int `yaml:"db" json:"db"`

	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// 健康检查间隔
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		Password:            "",
		DB:                  0,
		DefaultTTL:          5 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		HealthCheckInterval: 30 * time.Second,
	}
}

// New 创建工作流缓存并验证连接
func New(config Config, logger *zap.Logger) (*WorkflowCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:       config.Addr,
		Password:   config.Password,
		DB:         config.DB,
		MaxRetries: config.MaxRetries,
		PoolSize:   config.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := &WorkflowCache{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "workflow_cache")),
	}

	// 启动健康检查
	if config.HealthCheckInterval > 0 {
		go c.healthCheckLoop()
	}

	logger.Info("workflow cache initialized",
		zap.String("addr", config.Addr),
		zap.Duration("default_ttl", config.DefaultTTL),
	)

	return c, nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Get 按 id 获取缓存的工作流，未命中返回 ErrMiss
func (c *WorkflowCache) Get(ctx context.Context, id string) (*workflow.Workflow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("workflow cache is closed")
	}

	val, err := c.redis.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	wf, err := workflow.FromJSON([]byte(val))
	if err != nil {
		// 缓存内容损坏时按未命中处理，同时清掉坏条目
		c.logger.Warn("cache entry corrupted, evicting",
			zap.String("id", id), zap.Error(err))
		c.redis.Del(ctx, keyPrefix+id)
		return nil, ErrMiss
	}
	return wf, nil
}

// Put 缓存工作流，ttl 为零时使用默认过期时间
func (c *WorkflowCache) Put(ctx context.Context, wf *workflow.Workflow, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("workflow cache is closed")
	}
	if wf.ID == "" {
		return fmt.Errorf("cannot cache workflow without id")
	}

	if ttl == 0 {
		ttl = c.config.DefaultTTL
	}

	doc, err := wf.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize workflow %s: %w", wf.ID, err)
	}

	if err := c.redis.Set(ctx, keyPrefix+wf.ID, doc, ttl).Err(); err != nil {
		c.logger.Error("cache put failed", zap.String("id", wf.ID), zap.Error(err))
		return fmt.Errorf("cache put failed: %w", err)
	}

	return nil
}

// Invalidate 删除缓存条目
func (c *WorkflowCache) Invalidate(ctx context.Context, ids ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("workflow cache is closed")
	}

	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("cache invalidate failed", zap.Strings("ids", ids), zap.Error(err))
		return fmt.Errorf("cache invalidate failed: %w", err)
	}

	return nil
}

// Ping 检查 Redis 连接
func (c *WorkflowCache) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("workflow cache is closed")
	}

	return c.redis.Ping(ctx).Err()
}

// Close 关闭缓存
func (c *WorkflowCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Info("closing workflow cache")

	return c.redis.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

// healthCheckLoop 健康检查循环
func (c *WorkflowCache) healthCheckLoop() {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		c.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.Ping(ctx); err != nil {
			c.logger.Error("cache health check failed", zap.Error(err))
		} else {
			c.logger.Debug("cache health check passed")
		}
		cancel()
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// ErrMiss 缓存未命中错误
var ErrMiss = fmt.Errorf("cache miss")

// IsMiss 判断是否为缓存未命中错误
func IsMiss(err error) bool {
	return err == ErrMiss
}
