package repository

import (
	"context"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
)

// CheckoutSessionRepository stores the pending sale of each cashier
type CheckoutSessionRepository interface {
	// Get returns nil, nil when the cashier has no session yet
	Get(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error)
	Save(ctx context.Context, session *entity.CheckoutSession) error
	Delete(ctx context.Context, cashierID int64) error
}
