package cart

import "github.com/shopspring/decimal"

// Line is a cart item joined with its live product row. Checkout validates
// against these fields, never against anything cached at add-to-cart time.
type Line struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	Quantity      int             `json:"quantity"`
}

type AddInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateInput struct {
	Quantity int `json:"quantity"`
}
