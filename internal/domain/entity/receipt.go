package entity

// ReceiptHeader holds the pharmacy identity printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// Receipt is a value object representing a printable receipt.
// It is composed from a finalized sale at print time and never stored.
type Receipt struct {
	Header        ReceiptHeader `json:"header"`
	ReceiptNo     string        `json:"receipt_no"`
	SaleID        int64         `json:"sale_id"`
	SaleDate      string        `json:"sale_date"`
	PrintedAt     string        `json:"printed_at"`
	Cashier       string        `json:"cashier,omitempty"`
	ClientName    string        `json:"client_name"`
	ClientTaxCode string        `json:"client_tax_code"`
	Items         []ReceiptItem `json:"items"`
	Total         string        `json:"total"`
}
