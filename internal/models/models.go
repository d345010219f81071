package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                string          `json:"product_id"`
	Name              string          `json:"product_name"`
	SKU               string          `json:"product_sku"`
	SupplierName      string          `json:"supplier_name,omitempty"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	QuantityOnHand    int             `json:"quantity_on_hand"`
	QuantityReserved  int             `json:"quantity_reserved"`
	QuantityAvailable int             `json:"quantity_available"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	ReorderPoint      int             `json:"reorder_point"`
	OptimalStockLevel int             `json:"optimal_stock_level"`
	WarehouseLocation string          `json:"warehouse_location,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

const (
	CartStatusActive  = "active"
	CartStatusOrdered = "ordered"
)

type Cart struct {
	ID        int64     `json:"cart_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart item joined with a live snapshot of its product.
type CartLine struct {
	ItemID            int64           `json:"item_id"`
	CartID            int64           `json:"cart_id"`
	ProductID         string          `json:"product_id"`
	Quantity          int             `json:"quantity"`
	AddedAt           time.Time       `json:"added_at"`
	ProductName       string          `json:"product_name"`
	ProductSKU        string          `json:"product_sku"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	QuantityAvailable int             `json:"quantity_available"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID          int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	CartID      int64           `json:"cart_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID          int64           `json:"order_item_id"`
	OrderID     int64           `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}
