package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/models"
)

// GetOrCreateActiveCart returns the user's active cart id, creating the
// cart on first access. A partial unique index on (user_id) WHERE
// status = 'active' makes concurrent first-time calls safe: the insert
// is ON CONFLICT DO NOTHING, and a caller that loses the race re-reads
// the winner's row.
func GetOrCreateActiveCart(ctx context.Context, q database.Querier, userID string) (int64, error) {
	var cartID int64

	query := `SELECT cart_id FROM carts WHERE user_id = $1 AND status = $2 LIMIT 1`
	err := q.QueryRowContext(ctx, query, userID, models.CartStatusActive).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("find active cart: %w", err)
	}

	insert := `
		INSERT INTO carts (user_id, status)
		VALUES ($1, $2)
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
		RETURNING cart_id`
	err = q.QueryRowContext(ctx, insert, userID, models.CartStatusActive).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("create active cart: %w", err)
	}

	// Lost the race; the unique index guarantees exactly one winner.
	err = q.QueryRowContext(ctx, query, userID, models.CartStatusActive).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, database.ErrCartNotFound
		}
		return 0, fmt.Errorf("re-read active cart: %w", err)
	}
	return cartID, nil
}

// UpsertLine inserts a cart line or, if the product is already in the
// cart, adds the quantity to the existing line. added_at is set once on
// first insert and never refreshed: it is the insertion-order key that
// ListLines sorts by. Merges touch updated_at only.
func UpsertLine(ctx context.Context, db *sql.DB, cartID int64, productID string, quantity int) error {
	var productName string
	err := db.QueryRowContext(ctx,
		`SELECT product_name FROM products WHERE product_id = $1`,
		productID).Scan(&productName)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrProductNotFound
		}
		return fmt.Errorf("check product exists: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		               updated_at = NOW()`,
		cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}

	return nil
}

// RemoveLine deletes a single line. Removing a product that is not in
// the cart is not an error; the bool tells the caller whether anything
// was actually removed.
func RemoveLine(ctx context.Context, db *sql.DB, cartID int64, productID string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	if err != nil {
		return false, fmt.Errorf("remove cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListLines returns the cart's lines joined with a current product
// snapshot, oldest first. Insertion order is a user-facing contract:
// carts display items in the order they were first added.
func ListLines(ctx context.Context, q database.Querier, cartID int64) ([]models.CartLine, error) {
	query := `
		SELECT ci.item_id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at,
		       p.product_name, p.product_sku, p.unit_cost, p.quantity_available
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at ASC, ci.item_id ASC`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		err := rows.Scan(
			&line.ItemID,
			&line.CartID,
			&line.ProductID,
			&line.Quantity,
			&line.AddedAt,
			&line.ProductName,
			&line.ProductSKU,
			&line.UnitCost,
			&line.QuantityAvailable,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// ClearLines deletes every line in the cart.
func ClearLines(ctx context.Context, q database.Querier, cartID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
