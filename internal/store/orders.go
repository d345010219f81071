package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/models"
)

// GetOrder reads back a committed purchase with its line items.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT order_id, order_number, user_id, cart_id, total_amount, created_at
		FROM orders
		WHERE order_id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.CartID,
		&order.TotalAmount,
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT order_item_id, order_id, product_id, product_name, quantity, unit_cost, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY order_item_id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitCost,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

// GetOrderByNumber resolves the receipt handed to the user back to the
// stored order.
func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*models.Order, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT order_id FROM orders WHERE order_number = $1`,
		orderNumber).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return GetOrder(ctx, db, id)
}
