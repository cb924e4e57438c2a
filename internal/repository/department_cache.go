package repository

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"docflow/internal/model"
)

const catalogCacheKey = "departments"

// CachedDepartmentRepository decorates a DepartmentRepository with a short
// TTL cache. The rule engine consults the catalog on every classifier
// callback while departments change rarely, so a small staleness window is an
// acceptable trade for dropping a query from the hot path.
type CachedDepartmentRepository struct {
	inner DepartmentRepository
	cache *gocache.Cache
}

// NewCachedDepartmentRepository wraps inner with a cache using the given TTL.
func NewCachedDepartmentRepository(inner DepartmentRepository, ttl time.Duration) *CachedDepartmentRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedDepartmentRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

var _ DepartmentRepository = (*CachedDepartmentRepository)(nil)

// ListAll returns the cached catalog, refreshing it after expiry.
func (r *CachedDepartmentRepository) ListAll(ctx context.Context) ([]model.Department, error) {
	if v, ok := r.cache.Get(catalogCacheKey); ok {
		return v.([]model.Department), nil
	}
	depts, err := r.inner.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(catalogCacheKey, depts)
	return depts, nil
}

// FindByName is served from the cached catalog when possible.
func (r *CachedDepartmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	if v, ok := r.cache.Get(catalogCacheKey); ok {
		for _, d := range v.([]model.Department) {
			if d.Name == name {
				dept := d
				return &dept, nil
			}
		}
	}
	return r.inner.FindByName(ctx, name)
}
