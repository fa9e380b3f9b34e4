package service

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_OnlyActiveKnownPermissions(t *testing.T) {
	api := newFakeAPI()
	api.grants[9] = []entity.PermissionGrant{
		{PermissionID: 5, Active: true},
		{PermissionID: 6, Active: false},
		{PermissionID: 42, Active: true},
	}
	svc := NewCapabilityService(api, time.Minute)

	caps, err := svc.Resolve(context.Background(), 9)

	require.NoError(t, err)
	assert.True(t, caps.Has(enum.PermissionSales))
	assert.False(t, caps.Has(enum.PermissionSalesHistory))
	assert.Equal(t, []enum.Permission{enum.PermissionSales}, caps.List())
}

func TestResolve_CachesUntilTTL(t *testing.T) {
	api := newFakeAPI()
	api.grants[9] = []entity.PermissionGrant{{PermissionID: 5, Active: true}}
	svc := NewCapabilityService(api, time.Minute)
	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.Resolve(context.Background(), 9)
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount())

	now = now.Add(2 * time.Minute)
	_, err = svc.Resolve(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, api.callCount())

	svc.Invalidate(9)
	_, err = svc.Resolve(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 3, api.callCount())
}

func TestResolve_SharedFetchSurvivesCallerCancel(t *testing.T) {
	api := newFakeAPI()
	api.grants[9] = []entity.PermissionGrant{{PermissionID: 5, Active: true}}
	api.grantsStarted = make(chan struct{}, 1)
	api.grantsRelease = make(chan struct{})
	svc := NewCapabilityService(api, time.Minute)

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan error, 1)
	go func() {
		_, err := svc.Resolve(ctxA, 9)
		doneA <- err
	}()
	<-api.grantsStarted

	type outcome struct {
		caps entity.Capabilities
		err  error
	}
	doneB := make(chan outcome, 1)
	go func() {
		caps, err := svc.Resolve(context.Background(), 9)
		doneB <- outcome{caps: caps, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()
	time.Sleep(20 * time.Millisecond)
	close(api.grantsRelease)

	b := <-doneB
	require.NoError(t, b.err)
	assert.True(t, b.caps.Has(enum.PermissionSales))
	require.NoError(t, <-doneA)
	assert.Equal(t, 1, api.callCount())
}
