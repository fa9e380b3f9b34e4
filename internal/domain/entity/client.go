package entity

// Client is a customer of the pharmacy. Read-only here.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxCode string `json:"tax_code"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Deleted bool   `json:"-"`
}
