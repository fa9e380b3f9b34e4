package service

import (
	"context"
	"log"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
)

// SaleLineView is a persisted sale line with its product name
type SaleLineView struct {
	entity.SaleLine
	ProductName string `json:"product_name,omitempty"`
}

// SalesService reads finalized sales back from the pharmacy API
type SalesService struct {
	api      repository.PharmacyAPI
	catalog  *CatalogService
	checkout *CheckoutService
	receipts *ReceiptService
}

// NewSalesService creates a new sales service
func NewSalesService(api repository.PharmacyAPI, catalog *CatalogService, checkout *CheckoutService, receipts *ReceiptService) *SalesService {
	return &SalesService{
		api:      api,
		catalog:  catalog,
		checkout: checkout,
		receipts: receipts,
	}
}

// ListSaleLines returns the lines of a sale
func (s *SalesService) ListSaleLines(ctx context.Context, saleID int64) ([]SaleLineView, error) {
	lines, err := s.api.ListSaleLines(ctx, saleID)
	if err != nil {
		return nil, err
	}
	// Names are best-effort; lines are returned even without a catalog
	if _, err := s.catalog.ensureLoaded(ctx); err != nil {
		log.Printf("Sale %d lines: catalog unavailable, product names omitted: %v", saleID, err)
	}

	names := s.catalog.ProductNames(productIDs(lines)...)
	views := make([]SaleLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, SaleLineView{SaleLine: l, ProductName: names[l.ProductID]})
	}
	return views, nil
}

// Reprint prints the receipt of an existing sale. Date, client and cashier are
// taken from the checkout journal when the sale was made through this service.
func (s *SalesService) Reprint(ctx context.Context, saleID int64, cashier entity.CashierSession) (*entity.Receipt, error) {
	lines, err := s.api.ListSaleLines(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.ensureLoaded(ctx); err != nil {
		log.Printf("Reprint: catalog unavailable for sale %d, product names omitted: %v", saleID, err)
	}

	sale := entity.Sale{ID: saleID, CashierID: cashier.CashierID}
	cashierName := cashier.CashierName
	var client *entity.Client

	attempt, err := s.checkout.FindAttemptBySale(ctx, saleID)
	if err != nil {
		log.Printf("Reprint: checkout journal lookup failed for sale %d: %v", saleID, err)
	}
	if attempt != nil {
		sale.Date = attempt.SaleDate
		sale.ClientID = attempt.ClientID
		// The receipt names whoever made the sale, not whoever reprints it
		sale.CashierID = attempt.CashierID
		if attempt.CashierName != "" {
			cashierName = attempt.CashierName
		}
		if c, err := s.catalog.GetClient(ctx, attempt.ClientID); err == nil {
			client = &c
		}
	}

	return s.receipts.Emit(ctx, SaleReceiptInput{
		Sale:         sale,
		Lines:        lines,
		ProductNames: s.catalog.ProductNames(productIDs(lines)...),
		Client:       client,
		Cashier:      cashierName,
	})
}

func productIDs(lines []entity.SaleLine) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
