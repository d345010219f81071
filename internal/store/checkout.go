package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/models"
)

type CheckoutState string

const (
	StateCommitted         CheckoutState = "committed"
	StateEmptyCart         CheckoutState = "empty_cart"
	StateInsufficientStock CheckoutState = "insufficient_stock"
)

// Shortage describes a single cart line whose requested quantity
// exceeds current availability.
type Shortage struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

type ReceiptLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitCost    decimal.Decimal
	Subtotal    decimal.Decimal
}

type Receipt struct {
	OrderNumber string
	Lines       []ReceiptLine
	Total       decimal.Decimal
}

// CheckoutResult carries the terminal state of one checkout attempt.
// EmptyCart and InsufficientStock are expected outcomes, not errors;
// Receipt is set only when State is StateCommitted, and Shortages
// enumerates every offending line when State is StateInsufficientStock.
type CheckoutResult struct {
	State     CheckoutState
	Shortages []Shortage
	Receipt   *Receipt
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

// Checkout validates the user's active cart against live availability
// and, only if every line clears, commits the purchase: stock is
// decremented, a receipt order is recorded, the cart's lines are
// removed and the cart closes as ordered.
//
// The whole attempt runs in one serializable transaction and the
// validate read locks each line's product row (FOR UPDATE) until
// commit, so two checkouts draining the same product serialize rather
// than both passing validation. A rejected or empty cart performs no
// writes at all.
func Checkout(ctx context.Context, db *sql.DB, userID string) (*CheckoutResult, error) {
	var result *CheckoutResult

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		cartID, err := GetOrCreateActiveCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		lines, err := listLinesLocked(ctx, tx, cartID)
		if err != nil {
			return err
		}

		if len(lines) == 0 {
			result = &CheckoutResult{State: StateEmptyCart}
			return nil
		}

		var shortages []Shortage
		for _, line := range lines {
			if line.Quantity > line.QuantityAvailable {
				shortages = append(shortages, Shortage{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Requested:   line.Quantity,
					Available:   line.QuantityAvailable,
				})
			}
		}
		if len(shortages) > 0 {
			result = &CheckoutResult{State: StateInsufficientStock, Shortages: shortages}
			return nil
		}

		receipt := &Receipt{OrderNumber: generateOrderNumber()}
		for _, line := range lines {
			if err := DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("commit line %s: %w", line.ProductID, err)
			}

			subtotal := line.Subtotal()
			receipt.Lines = append(receipt.Lines, ReceiptLine{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost,
				Subtotal:    subtotal,
			})
			receipt.Total = receipt.Total.Add(subtotal)
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, user_id, cart_id, total_amount)
			 VALUES ($1, $2, $3, $4)
			 RETURNING order_id`,
			receipt.OrderNumber, userID, cartID, receipt.Total).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range receipt.Lines {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_cost, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, line.ProductID, line.ProductName, line.Quantity, line.UnitCost, line.Subtotal)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		if err := ClearLines(ctx, tx, cartID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE carts SET status = $1, updated_at = NOW() WHERE cart_id = $2`,
			models.CartStatusOrdered, cartID)
		if err != nil {
			return fmt.Errorf("close cart: %w", err)
		}

		result = &CheckoutResult{State: StateCommitted, Receipt: receipt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// listLinesLocked is ListLines with the joined product rows locked for
// the rest of the transaction.
func listLinesLocked(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartLine, error) {
	query := `
		SELECT ci.item_id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at,
		       p.product_name, p.product_sku, p.unit_cost, p.quantity_available
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at ASC, ci.item_id ASC
		FOR UPDATE OF p`

	rows, err := tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
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
