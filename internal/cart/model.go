package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one product a user intends to buy. Price is the snapshot taken
// when the item was added (or last re-added) and is what every later total
// uses; the product's live price never leaks back in.
type Item struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	AddedAt      time.Time       `json:"added_at"`
	IsCheckedOut bool            `json:"is_checked_out"`
	CheckedOutAt *time.Time      `json:"checked_out_at,omitempty"`
	OrderID      string          `json:"order_id,omitempty"`
}

// Line is an Item annotated with the product's current availability for
// display. An item whose product has since disappeared or been soft-deleted
// stays in the cart, flagged unavailable.
type Line struct {
	Item
	ProductName string `json:"product_name,omitempty"`
	Available   bool   `json:"product_available"`
}
