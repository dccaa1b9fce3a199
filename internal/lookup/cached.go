package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"brokerdesk/pkg/platform/sentinel"
)

// Cache stores encoded lookup results. Get returns sentinel.ErrNotFound on a
// miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCatalog is a read-through cache in front of a Catalog. Concurrent
// misses for the same key share one upstream call. Cache failures fall back
// to the upstream catalog.
type CachedCatalog struct {
	next   Catalog
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewCachedCatalog(next Catalog, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cached[T any](ctx context.Context, c *CachedCatalog, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.warn(ctx, "discarding undecodable cache entry", key, err)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		c.warn(ctx, "cache read failed", key, err)
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// detached so one caller's cancellation does not fail the others
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(v); err == nil {
			if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
				c.warn(ctx, "cache write failed", key, err)
			}
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func (c *CachedCatalog) warn(ctx context.Context, msg, key string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}

func (c *CachedCatalog) CitiesByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	return cached(ctx, c, "cities:"+postalCode, func(ctx context.Context) ([]string, error) {
		return c.next.CitiesByPostalCode(ctx, postalCode)
	})
}

func (c *CachedCatalog) SearchMakes(ctx context.Context, prefix string) ([]Make, error) {
	return cached(ctx, c, "makes:"+strings.ToLower(prefix), func(ctx context.Context) ([]Make, error) {
		return c.next.SearchMakes(ctx, prefix)
	})
}

func (c *CachedCatalog) SearchModels(ctx context.Context, makeID, prefix string) ([]Model, error) {
	return cached(ctx, c, "models:"+makeID+":"+strings.ToLower(prefix), func(ctx context.Context) ([]Model, error) {
		return c.next.SearchModels(ctx, makeID, prefix)
	})
}

func (c *CachedCatalog) ListInsurers(ctx context.Context) ([]Insurer, error) {
	return cached(ctx, c, "insurers", c.next.ListInsurers)
}

func (c *CachedCatalog) ListStatuses(ctx context.Context) ([]StatusOption, error) {
	return cached(ctx, c, "statuses", c.next.ListStatuses)
}

func (c *CachedCatalog) ListNationalities(ctx context.Context) ([]Nationality, error) {
	return cached(ctx, c, "nationalities", c.next.ListNationalities)
}
