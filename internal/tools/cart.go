// Package tools is the function-call surface consumed by the agent
// tool-dispatch layer. Every operation resolves to a user-facing
// string: expected outcomes (unknown product, empty cart, shortages)
// are messages, and only persistence failures surface as errors.
package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/store"
)

const (
	msgNotSignedIn = "Error: no user identified. Please sign in first."
	msgEmptyCart   = "Your cart is empty."
)

// AddToCart puts quantity units of a product into the user's active
// cart, creating the cart on first use. Repeat adds of the same product
// merge into one line.
func AddToCart(ctx context.Context, db *sql.DB, userID, productID string, quantity int) (string, error) {
	if userID == "" {
		return msgNotSignedIn, nil
	}
	if quantity < 1 {
		return fmt.Sprintf("Error: quantity must be at least 1, got %d.", quantity), nil
	}

	product, err := store.GetProduct(ctx, db, productID)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return fmt.Sprintf("Error: product '%s' was not found.", productID), nil
		}
		return "", err
	}

	cartID, err := store.GetOrCreateActiveCart(ctx, db, userID)
	if err != nil {
		return "", err
	}

	if err := store.UpsertLine(ctx, db, cartID, productID, quantity); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return fmt.Sprintf("Error: product '%s' was not found.", productID), nil
		}
		return "", err
	}

	return fmt.Sprintf("Added %d x '%s' to your cart.", quantity, product.Name), nil
}

// ViewCart renders the cart's lines in the order they were first
// added, with a computed total. An empty cart and a not-yet-created
// cart render the same way.
func ViewCart(ctx context.Context, db *sql.DB, userID string) (string, error) {
	if userID == "" {
		return msgNotSignedIn, nil
	}

	cartID, err := store.GetOrCreateActiveCart(ctx, db, userID)
	if err != nil {
		return "", err
	}

	lines, err := store.ListLines(ctx, db, cartID)
	if err != nil {
		return "", err
	}

	if len(lines) == 0 {
		return msgEmptyCart, nil
	}

	var b strings.Builder
	b.WriteString("Your shopping cart:\n\n")

	total := decimal.Zero
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s (x%d)\n", line.ProductName, line.Quantity)
		fmt.Fprintf(&b, "  $%s each | %d available\n", line.UnitCost.StringFixed(2), line.QuantityAvailable)
		total = total.Add(line.Subtotal())
	}

	fmt.Fprintf(&b, "\nEstimated total: $%s\n", total.StringFixed(2))
	b.WriteString("\nSay 'checkout' when you are ready to pay.")

	return b.String(), nil
}

// RemoveFromCart deletes one product's line. Removing something that
// was never added is reported, not treated as a failure.
func RemoveFromCart(ctx context.Context, db *sql.DB, userID, productID string) (string, error) {
	if userID == "" {
		return msgNotSignedIn, nil
	}

	cartID, err := store.GetOrCreateActiveCart(ctx, db, userID)
	if err != nil {
		return "", err
	}

	removed, err := store.RemoveLine(ctx, db, cartID, productID)
	if err != nil {
		return "", err
	}

	if removed {
		return "Removed the product from your cart.", nil
	}
	return "That product was not in your cart.", nil
}

// ClearCart removes every line from the user's active cart.
func ClearCart(ctx context.Context, db *sql.DB, userID string) (string, error) {
	if userID == "" {
		return msgNotSignedIn, nil
	}

	cartID, err := store.GetOrCreateActiveCart(ctx, db, userID)
	if err != nil {
		return "", err
	}

	if err := store.ClearLines(ctx, db, cartID); err != nil {
		return "", err
	}

	return "Your cart is now empty.", nil
}

// Checkout validates the whole cart against available stock and either
// commits the purchase or reports every short line.
func Checkout(ctx context.Context, db *sql.DB, userID string) (string, error) {
	if userID == "" {
		return msgNotSignedIn, nil
	}

	result, err := store.Checkout(ctx, db, userID)
	if err != nil {
		return "", err
	}

	switch result.State {
	case store.StateEmptyCart:
		return msgEmptyCart, nil

	case store.StateInsufficientStock:
		var b strings.Builder
		b.WriteString("The purchase cannot be completed, some items exceed available stock:\n")
		for _, s := range result.Shortages {
			fmt.Fprintf(&b, "- %s: you want %d, but only %d left.\n", s.ProductName, s.Requested, s.Available)
		}
		b.WriteString("\nWould you like me to adjust your cart to the available stock?")
		return b.String(), nil

	case store.StateCommitted:
		r := result.Receipt
		var b strings.Builder
		fmt.Fprintf(&b, "Purchase complete! Order %s\n\n", r.OrderNumber)
		for _, line := range r.Lines {
			fmt.Fprintf(&b, "- %d x %s ($%s each)\n", line.Quantity, line.ProductName, line.UnitCost.StringFixed(2))
		}
		fmt.Fprintf(&b, "\nTotal paid: $%s", r.Total.StringFixed(2))
		return b.String(), nil
	}

	return "", fmt.Errorf("unexpected checkout state %q", result.State)
}
