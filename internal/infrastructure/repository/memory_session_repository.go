package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
)

// memorySessionRepository keeps checkout sessions in process memory.
// Sessions are stored encoded so callers never share a pointer with the store.
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64][]byte
}

// NewMemorySessionRepository creates an in-process checkout session store
func NewMemorySessionRepository() domainRepo.CheckoutSessionRepository {
	return &memorySessionRepository{sessions: make(map[int64][]byte)}
}

func (r *memorySessionRepository) Get(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	r.mu.RLock()
	data, ok := r.sessions[cashierID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var session entity.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &session, nil
}

func (r *memorySessionRepository) Save(ctx context.Context, session *entity.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	r.mu.Lock()
	r.sessions[session.CashierID] = data
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, cashierID int64) error {
	r.mu.Lock()
	delete(r.sessions, cashierID)
	r.mu.Unlock()
	return nil
}
