package repository

import (
	"context"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateSaleInput is the header sent before any line exists
type CreateSaleInput struct {
	Date      string
	Total     decimal.Decimal
	CashierID int64
	ClientID  int64
}

// PharmacyAPI is the remote pharmacy REST API that owns products, clients and sales
type PharmacyAPI interface {
	ListActiveProducts(ctx context.Context) ([]entity.Product, error)
	ListActiveClients(ctx context.Context) ([]entity.Client, error)
	ListLaboratories(ctx context.Context) ([]entity.Laboratory, error)
	ListProductTypes(ctx context.Context) ([]entity.ProductType, error)
	ListPresentations(ctx context.Context) ([]entity.Presentation, error)
	GetPharmacyProfile(ctx context.Context) (*entity.PharmacyProfile, error)
	ListUserPermissions(ctx context.Context, userID int64) ([]entity.PermissionGrant, error)

	// CreateSale creates the sale header and returns it with the id assigned remotely
	CreateSale(ctx context.Context, input CreateSaleInput) (*entity.Sale, error)
	// CreateSaleLine creates one line of an existing sale
	CreateSaleLine(ctx context.Context, line entity.SaleLine) (*entity.SaleLine, error)
	// DeleteSale removes a sale header; used to compensate a partially created sale
	DeleteSale(ctx context.Context, saleID int64) error
	ListSaleLines(ctx context.Context, saleID int64) ([]entity.SaleLine, error)
}
