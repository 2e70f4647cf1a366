package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PermissionCache 权限检查结果缓存
type PermissionCache struct {
	cache *sync.Map
	ttl   time.Duration
	now   func() time.Time
}

// cacheEntry 缓存条目
type cacheEntry struct {
	value     bool
	expiresAt time.Time
}

// NewPermissionCache 创建权限缓存
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		cache: &sync.Map{},
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get 获取缓存
func (c *PermissionCache) Get(key string) (bool, bool) {
	val, found := c.cache.Load(key)
	if !found {
		return false, false
	}

	entry := val.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.cache.Delete(key)
		return false, false
	}

	return entry.value, true
}

// Set 设置缓存
func (c *PermissionCache) Set(key string, value bool) {
	c.cache.Store(key, &cacheEntry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Delete 删除单个条目
func (c *PermissionCache) Delete(key string) {
	c.cache.Delete(key)
}

// Clear 清空缓存
func (c *PermissionCache) Clear() {
	c.cache.Range(func(key, _ interface{}) bool {
		c.cache.Delete(key)
		return true
	})
}

// permissionKey 缓存 key
func permissionKey(userID, relation, objectType, objectID string) string {
	return fmt.Sprintf("user:%s:%s:%s:%s", userID, relation, objectType, objectID)
}

// authorizerWriter 同时支持检查和写关系的后端
type authorizerWriter interface {
	Authorizer
	RelationWriter
}

// CachedAuthorizer 带缓存的授权检查,写关系时清除对应条目
type CachedAuthorizer struct {
	backend authorizerWriter
	cache   *PermissionCache
}

// NewCachedAuthorizer 创建带缓存的授权检查
func NewCachedAuthorizer(backend authorizerWriter, cache *PermissionCache) *CachedAuthorizer {
	return &CachedAuthorizer{
		backend: backend,
		cache:   cache,
	}
}

// CheckPermission 检查权限(带缓存),错误结果不缓存
func (c *CachedAuthorizer) CheckPermission(ctx context.Context, userID, relation, objectType, objectID string) (bool, error) {
	key := permissionKey(userID, relation, objectType, objectID)
	if value, found := c.cache.Get(key); found {
		return value, nil
	}

	allowed, err := c.backend.CheckPermission(ctx, userID, relation, objectType, objectID)
	if err != nil {
		return false, err
	}

	c.cache.Set(key, allowed)
	return allowed, nil
}

// SetRelation 设置权限关系
func (c *CachedAuthorizer) SetRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	if err := c.backend.SetRelation(ctx, userID, relation, objectType, objectID); err != nil {
		return err
	}
	c.cache.Delete(permissionKey(userID, relation, objectType, objectID))
	return nil
}

// DeleteRelation 删除权限关系
func (c *CachedAuthorizer) DeleteRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	if err := c.backend.DeleteRelation(ctx, userID, relation, objectType, objectID); err != nil {
		return err
	}
	c.cache.Delete(permissionKey(userID, relation, objectType, objectID))
	return nil
}
