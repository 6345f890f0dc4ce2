package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type ticketAccessStore interface {
	ListTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error)
	Grants(ctx context.Context, ticketTypeID int64) ([]models.AuthorizationGrant, error)
	Assignments(ctx context.Context, ticketTypeID, eventID int64) ([]models.AccessPointAssignment, error)
	ReplaceGrants(ctx context.Context, ticketTypeID int64, accessPointIDs []int64, createdBy string) error
}

type grantCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TicketAccessService maintains the ticket-type to access-point grant matrix
// and answers the hot-path authorization lookups for scanning. The matrix is
// read-mostly, so lookups go through a short-TTL cache that is invalidated on
// every save.
type TicketAccessService struct {
	store    ticketAccessStore
	cache    grantCache
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewTicketAccessService constructs the service. cache may be nil.
func NewTicketAccessService(store ticketAccessStore, cache grantCache, cacheTTL time.Duration, logger *zap.Logger) *TicketAccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &TicketAccessService{
		store:    store,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// ListTicketTypes returns the ticket types defined for an event.
func (s *TicketAccessService) ListTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	types, err := s.store.ListTicketTypes(ctx, eventID)
	if err != nil {
		return nil, storeFailure(err, "ticket type listing failed")
	}
	return types, nil
}

// Assignments returns every access point of the event flagged with whether
// the ticket type currently holds a grant for it.
func (s *TicketAccessService) Assignments(ctx context.Context, ticketTypeID, eventID int64) ([]models.AccessPointAssignment, error) {
	assignments, err := s.store.Assignments(ctx, ticketTypeID, eventID)
	if err != nil {
		return nil, storeFailure(err, "assignment listing failed")
	}
	return assignments, nil
}

// SaveAssignments replaces the ticket type's grant set and drops the cached
// matrix entry so the next scan sees the new grants.
func (s *TicketAccessService) SaveAssignments(ctx context.Context, ticketTypeID int64, accessPointIDs []int64, updatedBy string) error {
	if err := s.store.ReplaceGrants(ctx, ticketTypeID, accessPointIDs, updatedBy); err != nil {
		return storeFailure(err, "grant save failed")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, grantCacheKey(ticketTypeID)); err != nil {
			s.logger.Warn("failed to invalidate grant cache",
				zap.Int64("ticket_type_id", ticketTypeID), zap.Error(err))
		}
	}
	return nil
}

// GrantedAccessPoints returns the access point IDs granted to the ticket
// type. An empty slice means the ticket type is unrestricted.
func (s *TicketAccessService) GrantedAccessPoints(ctx context.Context, ticketTypeID int64) ([]int64, error) {
	key := grantCacheKey(ticketTypeID)
	if s.cache != nil {
		var cached []int64
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("grant cache read failed", zap.Error(err))
		}
	}

	grants, err := s.store.Grants(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.AccessPointID)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ids, s.cacheTTL); err != nil {
			s.logger.Warn("grant cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}

func grantCacheKey(ticketTypeID int64) string {
	return fmt.Sprintf("grants:ticket_type:%d", ticketTypeID)
}
