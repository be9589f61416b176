package tokencache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Entry 短期访问令牌。ExpiresIn 为绝对过期时间（Unix 毫秒）。
type Entry struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Store 键值持久化接口，只用于令牌缓存。
// Get 在键不存在时返回 ok=false 且 err=nil。
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FetchFunc 向服务商换取新令牌，返回令牌与有效期。
type FetchFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// Cache 令牌缓存，由调用方创建并注入到适配器。
// 读后按需写，不加锁，也不合并并发的刷新请求：缓存未命中时每个并发调用
// 各自换取一次令牌，最后写入者胜出。
type Cache struct {
	store   Store
	now     func() time.Time
	logger  *zap.Logger
	observe Observer
}

// Observer 在每次 Token 调用时收到命中情况，用于指标采集。
type Observer func(key string, hit bool)

// Option 配置 Cache。
type Option func(*Cache)

// WithClock 替换时钟，测试中用于模拟过期。
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger 设置日志。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver 设置命中观察者。
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observe = o }
}

// New 创建缓存，store 为 nil 时使用进程内存储。
func New(store Store, opts ...Option) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{store: store, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "tokencache"))
	return c
}

// Get 读取缓存项。存储错误按未命中处理并记录日志。
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("token store read failed", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("token entry corrupted", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	return e, true
}

// Set 覆盖写入缓存项。
func (c *Cache) Set(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal token entry: %w", err)
	}
	ttl := time.Duration(e.ExpiresIn-c.now().UnixMilli()) * time.Millisecond
	if ttl < 0 {
		ttl = 0
	}
	return c.store.Set(ctx, key, data, ttl)
}

// Expired 令牌为空或已到期时返回 true。
func (c *Cache) Expired(e Entry) bool {
	return e.AccessToken == "" || e.ExpiresIn <= c.now().UnixMilli()
}

// Token 返回有效令牌：命中且未过期直接返回，否则调用 fetch 并覆盖写入。
// 写入失败只记录日志，本次调用仍返回新令牌。
func (c *Cache) Token(ctx context.Context, key string, fetch FetchFunc) (string, error) {
	if e, ok := c.Get(ctx, key); ok && !c.Expired(e) {
		c.report(key, true)
		return e.AccessToken, nil
	}
	c.report(key, false)

	token, ttl, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	e := Entry{AccessToken: token, ExpiresIn: c.now().Add(ttl).UnixMilli()}
	if err := c.Set(ctx, key, e); err != nil {
		c.logger.Warn("token store write failed", zap.String("key", key), zap.Error(err))
	}
	return token, nil
}

func (c *Cache) report(key string, hit bool) {
	if c.observe != nil {
		c.observe(key, hit)
	}
}
