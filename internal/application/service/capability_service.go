package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"golang.org/x/sync/singleflight"
)

type capabilityEntry struct {
	caps      entity.Capabilities
	expiresAt time.Time
}

// CapabilityService computes the permission set of a cashier once and reuses it
// until the TTL elapses.
type CapabilityService struct {
	api repository.PharmacyAPI
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	cache map[int64]capabilityEntry
	sfg   singleflight.Group
}

// NewCapabilityService creates a new capability service
func NewCapabilityService(api repository.PharmacyAPI, ttl time.Duration) *CapabilityService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CapabilityService{
		api:   api,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[int64]capabilityEntry),
	}
}

// Resolve returns the capabilities of a cashier
func (s *CapabilityService) Resolve(ctx context.Context, cashierID int64) (entity.Capabilities, error) {
	s.mu.RLock()
	entry, ok := s.cache[cashierID]
	s.mu.RUnlock()
	if ok && s.now().Before(entry.expiresAt) {
		return entry.caps, nil
	}

	// Shared by every waiting request, so one caller's cancellation must not abort it
	ctx = context.WithoutCancel(ctx)

	v, err, _ := s.sfg.Do(strconv.FormatInt(cashierID, 10), func() (interface{}, error) {
		grants, err := s.api.ListUserPermissions(ctx, cashierID)
		if err != nil {
			return nil, err
		}
		caps := capabilitiesFromGrants(grants)

		s.mu.Lock()
		s.cache[cashierID] = capabilityEntry{caps: caps, expiresAt: s.now().Add(s.ttl)}
		s.mu.Unlock()
		return caps, nil
	})
	if err != nil {
		log.Printf("Failed to resolve capabilities for cashier %d: %v", cashierID, err)
		return nil, err
	}
	return v.(entity.Capabilities), nil
}

// Invalidate drops the cached capabilities of a cashier
func (s *CapabilityService) Invalidate(cashierID int64) {
	s.mu.Lock()
	delete(s.cache, cashierID)
	s.mu.Unlock()
}

func capabilitiesFromGrants(grants []entity.PermissionGrant) entity.Capabilities {
	caps := entity.NewCapabilities()
	for _, g := range grants {
		if !g.Active {
			continue
		}
		if p, ok := enum.ParsePermissionID(g.PermissionID); ok {
			caps[p] = struct{}{}
		}
	}
	return caps
}
