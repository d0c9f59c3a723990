// Package catalog serves the menu from the restaurant backend through a short
// shared Redis cache.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/redis"
	"github.com/burgnice/storefront/pkg/upstream"
)

const allCategories = "all"

type menuAPI interface {
	ListCategories(ctx context.Context) ([]upstream.Category, error)
	ListMenuItems(ctx context.Context, filter upstream.MenuFilter) ([]upstream.MenuItem, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service exposes menu browsing.
type Service interface {
	Categories(ctx context.Context) ([]upstream.Category, error)
	Items(ctx context.Context, category string) ([]upstream.MenuItem, error)
	Item(ctx context.Context, itemID string) (upstream.MenuItem, error)
	TopDeals(ctx context.Context) ([]upstream.MenuItem, error)
}

type Options struct {
	CacheTTL     time.Duration
	TopDealsSize int
}

type service struct {
	api   menuAPI
	cache cacheStore
	logg  *logger.Logger
	opts  Options
}

// NewService builds the catalog service. A nil cache disables caching.
func NewService(api menuAPI, cache cacheStore, logg *logger.Logger, opts Options) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("menu api required")
	}
	if opts.TopDealsSize <= 0 {
		opts.TopDealsSize = 6
	}
	return &service{api: api, cache: cache, logg: logg, opts: opts}, nil
}

func (s *service) Categories(ctx context.Context) ([]upstream.Category, error) {
	key := redis.CacheKey("catalog", "categories")
	var cached []upstream.Category
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, categories)
	return categories, nil
}

func (s *service) Items(ctx context.Context, category string) ([]upstream.MenuItem, error) {
	category = strings.TrimSpace(category)
	label := category
	if label == "" {
		label = allCategories
	}
	key := redis.CacheKey("catalog", "items", strings.ToLower(label))

	var cached []upstream.MenuItem
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}
	items, err := s.api.ListMenuItems(ctx, upstream.MenuFilter{Category: category})
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, items)
	return items, nil
}

func (s *service) Item(ctx context.Context, itemID string) (upstream.MenuItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return upstream.MenuItem{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	items, err := s.Items(ctx, "")
	if err != nil {
		return upstream.MenuItem{}, err
	}
	for _, item := range items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return upstream.MenuItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
}

// TopDeals returns the lowest priced items, cheapest first.
func (s *service) TopDeals(ctx context.Context) ([]upstream.MenuItem, error) {
	items, err := s.Items(ctx, "")
	if err != nil {
		return nil, err
	}
	deals := make([]upstream.MenuItem, len(items))
	copy(deals, items)
	sort.SliceStable(deals, func(i, j int) bool { return deals[i].Price < deals[j].Price })
	if len(deals) > s.opts.TopDealsSize {
		deals = deals[:s.opts.TopDealsSize]
	}
	return deals, nil
}

func (s *service) readCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			s.warn(ctx, key, "catalog cache read failed", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.warn(ctx, key, "catalog cache entry unreadable", err)
		return false
	}
	return true
}

func (s *service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.opts.CacheTTL); err != nil {
		s.warn(ctx, key, "catalog cache write failed", err)
	}
}

func (s *service) warn(ctx context.Context, key, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}
