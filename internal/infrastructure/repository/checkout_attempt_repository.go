package repository

import (
	"context"
	"errors"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/pagination"
	"gorm.io/gorm"
)

type checkoutAttemptRepository struct {
	db *gorm.DB
}

// NewCheckoutAttemptRepository creates a new checkout journal repository
func NewCheckoutAttemptRepository(db *gorm.DB) domainRepo.CheckoutAttemptRepository {
	return &checkoutAttemptRepository{db: db}
}

func (r *checkoutAttemptRepository) Create(ctx context.Context, attempt *entity.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *checkoutAttemptRepository) Update(ctx context.Context, attempt *entity.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *checkoutAttemptRepository) GetBySaleID(ctx context.Context, saleID int64) (*entity.CheckoutAttempt, error) {
	var attempt entity.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at DESC").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *checkoutAttemptRepository) ListOrphaned(ctx context.Context, params *pagination.PaginationParams) ([]entity.CheckoutAttempt, int64, error) {
	var attempts []entity.CheckoutAttempt
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.CheckoutAttempt{}).
		Scopes(CashierScope(ctx)).
		Where("status = ?", enum.AttemptStatusOrphaned)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Scopes(PageScope(params)).
		Order("created_at DESC").
		Find(&attempts).Error

	return attempts, total, err
}
