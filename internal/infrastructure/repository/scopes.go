package repository

import (
	"context"

	"github.com/sangkips/farmacia-pos/pkg/pagination"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// CashierIDKey is the context key for the cashier id
	CashierIDKey ctxKey = "cashier_id"
	// SkipCashierScopeKey is the context key for reading journal rows of every cashier
	SkipCashierScopeKey ctxKey = "skip_cashier_scope"
)

// CashierScope returns a GORM scope that filters journal rows by cashier.
// If SkipCashierScopeKey is true in context, returns all records
func CashierScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if SkipsCashierScope(ctx) {
			return db
		}

		cashierID, ok := GetCashierID(ctx)
		if !ok {
			// No cashier in context, match nothing
			return db.Where("1 = 0")
		}
		return db.Where("cashier_id = ?", cashierID)
	}
}

// PageScope applies limit and offset
func PageScope(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// WithSkipCashierScope adds skip cashier scope flag to context
func WithSkipCashierScope(ctx context.Context, skip bool) context.Context {
	return context.WithValue(ctx, SkipCashierScopeKey, skip)
}

// SkipsCashierScope reports whether journal queries should span every cashier
func SkipsCashierScope(ctx context.Context) bool {
	skip, ok := ctx.Value(SkipCashierScopeKey).(bool)
	return ok && skip
}

// WithCashier adds the cashier id to context
func WithCashier(ctx context.Context, cashierID int64) context.Context {
	return context.WithValue(ctx, CashierIDKey, cashierID)
}

// GetCashierID extracts the cashier id from context
func GetCashierID(ctx context.Context) (int64, bool) {
	cashierID, ok := ctx.Value(CashierIDKey).(int64)
	return cashierID, ok
}
