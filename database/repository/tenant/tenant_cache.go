package tenantRepo

import (
	"context"
	"encoding/json"
	"time"

	"agendabot/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const tenantCachePrefix = "tenant:profile:"

// profileCache is the subset of *redis.Client the tenant cache uses.
type profileCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedTenantRepo serves tenant profiles from Redis, falling back to next.
// Cache failures are logged and never fail the read. Entries are never
// invalidated: a profile change, including disabling the agent, is seen by
// every replica within ttl.
type CachedTenantRepo struct {
	next   TenantRepository
	client profileCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedTenantRepo(next TenantRepository, client profileCache, ttl time.Duration, logger *zap.Logger) *CachedTenantRepo {
	return &CachedTenantRepo{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedTenantRepo) GetTenant(ctx context.Context, companyID string) (*models.Tenant, error) {
	key := tenantCachePrefix + companyID

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tenant models.Tenant
		if err := json.Unmarshal(data, &tenant); err == nil {
			return &tenant, nil
		}
		r.logger.Warn("discarding undecodable tenant cache entry", zap.String("company_id", companyID))
	case err != redis.Nil:
		r.logger.Warn("tenant cache read failed", zap.String("company_id", companyID), zap.Error(err))
	}

	tenant, err := r.next.GetTenant(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(tenant); err == nil {
		if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
			r.logger.Warn("tenant cache write failed", zap.String("company_id", companyID), zap.Error(err))
		}
	}
	return tenant, nil
}
