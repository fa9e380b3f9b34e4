package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/sangkips/farmacia-pos/internal/domain/repository"
	"github.com/sangkips/farmacia-pos/pkg/printer"
	"github.com/sangkips/farmacia-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

// ReceiptOptions configures receipt layout and the identity fallback
type ReceiptOptions struct {
	PrinterType string
	PaperWidth  int
	NameWidth   int
	Fallback    entity.ReceiptHeader
}

// SaleReceiptInput is everything printed on a sale receipt
type SaleReceiptInput struct {
	Sale         entity.Sale
	Lines        []entity.SaleLine
	ProductNames map[int64]string
	Client       *entity.Client
	Cashier      string
}

// ReceiptService builds receipts for finalized sales and sends them to the thermal printer.
type ReceiptService struct {
	printer printer.Printer
	api     repository.PharmacyAPI
	opts    ReceiptOptions
	now     func() time.Time
}

// NewReceiptService creates a new receipt service.
func NewReceiptService(p printer.Printer, api repository.PharmacyAPI, opts ReceiptOptions) *ReceiptService {
	if opts.PaperWidth <= 0 {
		opts.PaperWidth = 48
	}
	if opts.NameWidth <= 0 {
		opts.NameWidth = 20
	}
	if opts.Fallback.StoreName == "" {
		opts.Fallback.StoreName = "Farmacia"
	}
	return &ReceiptService{
		printer: p,
		api:     api,
		opts:    opts,
		now:     time.Now,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *ReceiptService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.opts.PrinterType != "none" && s.opts.PrinterType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.opts.PrinterType,
	}
}

// header reads the pharmacy identity, falling back to configuration
func (s *ReceiptService) header(ctx context.Context) entity.ReceiptHeader {
	profile, err := s.api.GetPharmacyProfile(ctx)
	if err != nil || profile == nil || profile.Name == "" {
		if err != nil {
			log.Printf("Receipt header: using configured pharmacy identity: %v", err)
		}
		return s.opts.Fallback
	}
	return entity.ReceiptHeader{
		StoreName: profile.Name,
		Address:   profile.Address,
		Phone:     profile.Phone,
	}
}

// BuildReceipt composes the receipt value object for a sale
func (s *ReceiptService) BuildReceipt(ctx context.Context, in SaleReceiptInput) *entity.Receipt {
	receipt := &entity.Receipt{
		Header:    s.header(ctx),
		ReceiptNo: utils.GenerateReceiptNo(),
		SaleID:    in.Sale.ID,
		SaleDate:  in.Sale.Date,
		PrintedAt: s.now().Format("2006-01-02 15:04"),
		Cashier:   in.Cashier,
		Items:     make([]entity.ReceiptItem, 0, len(in.Lines)),
	}
	if in.Client != nil {
		receipt.ClientName = in.Client.Name
		receipt.ClientTaxCode = in.Client.TaxCode
	}

	total := decimal.Zero
	for _, l := range in.Lines {
		name := in.ProductNames[l.ProductID]
		if name == "" {
			name = fmt.Sprintf("Producto %d", l.ProductID)
		}
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Name:      printer.Truncate(name, s.opts.NameWidth),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Total:     l.LineTotal.StringFixed(2),
		})
		total = total.Add(l.LineTotal)
	}
	if !in.Sale.Total.IsZero() {
		total = in.Sale.Total
	}
	receipt.Total = total.StringFixed(2)

	return receipt
}

// Emit builds the receipt and prints it. The receipt is returned even when
// printing fails so the caller can still show it.
func (s *ReceiptService) Emit(ctx context.Context, in SaleReceiptInput) (*entity.Receipt, error) {
	receipt := s.BuildReceipt(ctx, in)

	data := FormatReceipt(receipt, s.opts.PaperWidth, s.opts.NameWidth)
	if err := s.printer.Print(data); err != nil {
		log.Printf("Printer error (sale %d): %v", in.Sale.ID, err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}

	return receipt, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width, nameWidth int) []byte {
	doc := printer.NewDocument(width)
	qtyW, priceW, totalW := receiptColumns(doc.Width(), &nameWidth)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.TextF("Tel: %s", r.Header.Phone)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	// Sale info
	doc.KeyValue("Recibo Nro:", r.ReceiptNo).
		KeyValue("Fecha venta:", r.SaleDate).
		KeyValue("Impreso:", r.PrintedAt)

	if r.ClientName != "" {
		doc.KeyValue("Cliente:", r.ClientName)
	}
	if r.ClientTaxCode != "" {
		doc.KeyValue("CI/NIT:", r.ClientTaxCode)
	}
	if r.Cashier != "" {
		doc.KeyValue("Vendedor:", r.Cashier)
	}

	doc.Separator('-')

	// Items
	doc.SetBold(true).
		Row(
			printer.Column{Text: "CANT", Width: qtyW},
			printer.Column{Text: "CONCEPTO", Width: nameWidth},
			printer.Column{Text: "P.U.", Width: priceW, Right: true},
			printer.Column{Text: "IMPORTE", Width: totalW, Right: true},
		).
		SetBold(false)

	for _, item := range r.Items {
		doc.Row(
			printer.Column{Text: fmt.Sprintf("%d", item.Quantity), Width: qtyW},
			printer.Column{Text: item.Name, Width: nameWidth},
			printer.Column{Text: item.UnitPrice, Width: priceW, Right: true},
			printer.Column{Text: item.Total, Width: totalW, Right: true},
		)
	}

	doc.Separator('-')

	doc.SetBold(true).
		KeyValue("TOTAL:", r.Total).
		SetBold(false)

	doc.Separator('-')

	// Footer
	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Gracias por su compra").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// receiptColumns splits the paper width into quantity, name, unit price and
// total columns, shrinking the name column on narrow paper.
func receiptColumns(width int, nameWidth *int) (qty, price, total int) {
	qty = 4
	const minMoney = 7
	const gaps = 3

	if *nameWidth > width-qty-gaps-2*minMoney {
		*nameWidth = width - qty - gaps - 2*minMoney
	}
	if *nameWidth < 1 {
		*nameWidth = 1
	}
	rest := width - qty - gaps - *nameWidth
	price = rest / 2
	total = rest - price
	return qty, price, total
}
