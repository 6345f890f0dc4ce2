package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type fakeTicketAccessStore struct {
	grants    []models.AuthorizationGrant
	grantHits int
	replaced  [][]int64
}

func (f *fakeTicketAccessStore) ListTicketTypes(context.Context, int64) ([]models.TicketType, error) {
	return nil, nil
}

func (f *fakeTicketAccessStore) Grants(context.Context, int64) ([]models.AuthorizationGrant, error) {
	f.grantHits++
	return f.grants, nil
}

func (f *fakeTicketAccessStore) Assignments(context.Context, int64, int64) ([]models.AccessPointAssignment, error) {
	return nil, nil
}

func (f *fakeTicketAccessStore) ReplaceGrants(_ context.Context, _ int64, ids []int64, _ string) error {
	f.replaced = append(f.replaced, ids)
	return nil
}

type fakeGrantCache struct {
	values  map[string][]int64
	deletes []string
}

func (f *fakeGrantCache) Get(_ context.Context, key string, dest interface{}) error {
	ids, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]int64)) = ids
	return nil
}

func (f *fakeGrantCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.values == nil {
		f.values = map[string][]int64{}
	}
	f.values[key] = value.([]int64)
	return nil
}

func (f *fakeGrantCache) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	delete(f.values, key)
	return nil
}

func TestGrantedAccessPointsCachesLookups(t *testing.T) {
	store := &fakeTicketAccessStore{grants: []models.AuthorizationGrant{
		{TicketTypeID: 3, AccessPointID: 5},
		{TicketTypeID: 3, AccessPointID: 9},
	}}
	cache := &fakeGrantCache{}
	svc := NewTicketAccessService(store, cache, time.Minute, nil)

	ids, err := svc.GrantedAccessPoints(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9}, ids)
	assert.Equal(t, 1, store.grantHits)

	ids, err = svc.GrantedAccessPoints(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9}, ids)
	assert.Equal(t, 1, store.grantHits, "second lookup should be served from cache")
}

func TestSaveAssignmentsInvalidatesCache(t *testing.T) {
	store := &fakeTicketAccessStore{}
	cache := &fakeGrantCache{values: map[string][]int64{"grants:ticket_type:3": {5}}}
	svc := NewTicketAccessService(store, cache, time.Minute, nil)

	require.NoError(t, svc.SaveAssignments(context.Background(), 3, []int64{5, 9}, "user-1"))
	require.Len(t, store.replaced, 1)
	assert.Equal(t, []int64{5, 9}, store.replaced[0])
	assert.Contains(t, cache.deletes, "grants:ticket_type:3")
}

func TestGrantedAccessPointsWorksWithoutCache(t *testing.T) {
	store := &fakeTicketAccessStore{grants: []models.AuthorizationGrant{{TicketTypeID: 3, AccessPointID: 5}}}
	svc := NewTicketAccessService(store, nil, 0, nil)

	ids, err := svc.GrantedAccessPoints(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}
