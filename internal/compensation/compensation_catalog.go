package compensation

import (
	"context"
	"net/http"

	"go-payroll-admin/internal/shared/apperror"
	"go-payroll-admin/internal/shared/cache"

	"go.uber.org/zap"
)

const (
	BonusOptionsKeyPrefix     = "compensation:bonus:options:"
	DeductionOptionsKeyPrefix = "compensation:deductions:options:"
)

type API interface {
	Do(ctx context.Context, method, path string, body any, out any) (string, error)
}

type Catalog interface {
	Bonuses(ctx context.Context) ([]BonusItem, error)
	Deductions(ctx context.Context) ([]DeductionItem, error)
	Invalidate(ctx context.Context) error
}

type catalog struct {
	api    API
	cache  *cache.Loader
	logger *zap.Logger
}

func NewCatalog(api API, loader *cache.Loader, logger ...*zap.Logger) Catalog {
	l := zap.L().Named("compensation.catalog")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("compensation.catalog")
	}
	return &catalog{api: api, cache: loader, logger: l}
}

func (c *catalog) Bonuses(ctx context.Context) ([]BonusItem, error) {
	return cache.GetOrLoad(ctx, c.cache, cache.ScopedKey(ctx, BonusOptionsKeyPrefix), func(ctx context.Context) ([]BonusItem, error) {
		var items []BonusItem
		if _, err := c.api.Do(ctx, http.MethodGet, "/bonus", nil, &items); err != nil {
			c.logger.Error("list bonuses failed", zap.Error(err))
			return nil, err
		}
		for _, it := range items {
			c.checkItem("bonus", it.ID, it)
		}
		if items == nil {
			items = []BonusItem{}
		}
		return items, nil
	})
}

func (c *catalog) Deductions(ctx context.Context) ([]DeductionItem, error) {
	return cache.GetOrLoad(ctx, c.cache, cache.ScopedKey(ctx, DeductionOptionsKeyPrefix), func(ctx context.Context) ([]DeductionItem, error) {
		var items []DeductionItem
		if _, err := c.api.Do(ctx, http.MethodGet, "/deductions", nil, &items); err != nil {
			c.logger.Error("list deductions failed", zap.Error(err))
			return nil, err
		}
		for _, it := range items {
			c.checkItem("deduction", it.ID, it)
		}
		if items == nil {
			items = []DeductionItem{}
		}
		return items, nil
	})
}

// checkItem keeps out-of-range items selectable; the server stays the authority on amounts.
func (c *catalog) checkItem(kind string, id int64, item any) {
	if err := apperror.Validator().Struct(item); err != nil {
		c.logger.Warn("catalog item out of range",
			zap.String("kind", kind),
			zap.Int64("id", id),
			zap.Any("fields", apperror.FieldMessages(err)),
		)
	}
}

func (c *catalog) Invalidate(ctx context.Context) error {
	for _, prefix := range []string{BonusOptionsKeyPrefix, DeductionOptionsKeyPrefix} {
		key := cache.ScopedKey(ctx, prefix)
		if err := c.cache.Invalidate(ctx, key); err != nil {
			c.logger.Error("failed to invalidate catalog cache", zap.String("key", key), zap.Error(err))
			return err
		}
	}
	return nil
}
