// Package cache keeps recently fetched lead pages in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"leaddesk/backend/browser"
	"leaddesk/backend/logger"
	"leaddesk/backend/models"
)

const keyPrefix = "leads"

// PageCache stores lead pages per subject. Every cached page key of a subject is tracked
// in a metadata list so the whole subject can be dropped at once.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

// Connect opens a Redis client and checks it with a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewPageCache wraps rdb. Pages expire after ttl.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, ttl: ttl, log: logger.For("cache")}
}

// PageKey is the cache key of one listing query.
func PageKey(q models.ListQuery) string {
	raw, _ := json.Marshal(struct {
		Page     int                   `json:"p"`
		Size     int                   `json:"s"`
		Criteria models.FilterCriteria `json:"c"`
	}{q.Page, q.PageSize, q.Criteria})
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, q.SubjectID, hex.EncodeToString(sum[:12]))
}

// MetadataKey is the key of the list tracking a subject's cached pages.
func MetadataKey(subjectID string) string {
	return fmt.Sprintf("%s:%s:meta", keyPrefix, subjectID)
}

// Get returns the cached page for q. A miss is reported as redis.Nil.
func (c *PageCache) Get(ctx context.Context, q models.ListQuery) (*models.LeadPage, error) {
	// without the metadata list an invalidation may have been missed
	exists, err := c.rdb.Exists(ctx, MetadataKey(q.SubjectID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, redis.Nil
	}

	str, err := c.rdb.Get(ctx, PageKey(q)).Result()
	if err != nil {
		return nil, err
	}
	var page models.LeadPage
	if err := json.Unmarshal([]byte(str), &page); err != nil {
		return nil, fmt.Errorf("error decoding cached page: %w", err)
	}
	return &page, nil
}

// Set stores page for q and records its key in the subject's metadata list.
func (c *PageCache) Set(ctx context.Context, q models.ListQuery, page *models.LeadPage) error {
	str, err := json.Marshal(page)
	if err != nil {
		return err
	}

	key := PageKey(q)
	meta := MetadataKey(q.SubjectID)
	if err := c.rdb.Set(ctx, key, str, c.ttl).Err(); err != nil {
		return err
	}

	_, err = c.rdb.LPos(ctx, meta, key, redis.LPosArgs{}).Result()
	if errors.Is(err, redis.Nil) {
		err = c.rdb.RPush(ctx, meta, key).Err()
	}
	if err != nil {
		return err
	}
	return c.rdb.Expire(ctx, meta, c.ttl).Err()
}

// Invalidate drops every cached page of the subject.
func (c *PageCache) Invalidate(ctx context.Context, subjectID string) error {
	meta := MetadataKey(subjectID)
	keys, err := c.rdb.LRange(ctx, meta, 0, -1).Result()
	if err != nil {
		return err
	}
	keys = append(keys, meta)
	return c.rdb.Del(ctx, keys...).Err()
}

// Lister serves listing queries from the cache and falls through to next on a miss.
// Cache errors are logged and never fail a fetch.
type Lister struct {
	next  browser.Lister
	cache *PageCache
}

// NewLister wraps next with cache.
func NewLister(next browser.Lister, cache *PageCache) *Lister {
	return &Lister{next: next, cache: cache}
}

// ListLeads implements browser.Lister.
func (l *Lister) ListLeads(ctx context.Context, q models.ListQuery) (*models.LeadPage, error) {
	page, err := l.cache.Get(ctx, q)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, redis.Nil) {
		l.cache.log.WithError(err).Warn("Lead page cache read failed")
	}

	page, err = l.next.ListLeads(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, q, page); err != nil {
		l.cache.log.WithError(err).Warn("Lead page cache write failed")
	}
	return page, nil
}

// Invalidate drops the subject's cached pages.
func (l *Lister) Invalidate(ctx context.Context, subjectID string) error {
	return l.cache.Invalidate(ctx, subjectID)
}
