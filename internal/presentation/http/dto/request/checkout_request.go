package request

// SetDateRequest selects the sale date. An empty date clears it.
type SetDateRequest struct {
	Date string `json:"date"`
}

// SelectClientRequest selects the active client of the checkout
type SelectClientRequest struct {
	ClientID int64 `json:"client_id" binding:"required,gt=0"`
}

// SetQuantityRequest replaces the quantity of a cart line.
// Zero removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CatalogSearchRequest represents catalog search parameters
type CatalogSearchRequest struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
