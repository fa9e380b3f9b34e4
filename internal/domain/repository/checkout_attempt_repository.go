package repository

import (
	"context"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
)

// CheckoutAttemptRepository defines the interface for the checkout journal
type CheckoutAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.CheckoutAttempt) error
	Update(ctx context.Context, attempt *entity.CheckoutAttempt) error
	// GetBySaleID returns the attempt that created a sale, or nil, nil
	GetBySaleID(ctx context.Context, saleID int64) (*entity.CheckoutAttempt, error)
	// ListOrphaned returns attempts whose sale header could not be compensated, newest first
	ListOrphaned(ctx context.Context, params *pagination.PaginationParams) ([]entity.CheckoutAttempt, int64, error)
}
