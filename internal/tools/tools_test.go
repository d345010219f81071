package tools_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tiendago/go-cart-engine/internal/models"
	"github.com/tiendago/go-cart-engine/internal/store"
	"github.com/tiendago/go-cart-engine/internal/testutil"
	"github.com/tiendago/go-cart-engine/internal/tools"
)

func seedProduct(t *testing.T, db *sql.DB, id, sku, name string, cost float64, available int) {
	t.Helper()

	_, err := store.CreateProduct(context.Background(), db, &models.Product{
		ID:                id,
		SKU:               sku,
		Name:              name,
		SupplierName:      "Acme Foods",
		UnitCost:          decimal.NewFromFloat(cost),
		QuantityOnHand:    available,
		QuantityAvailable: available,
		WarehouseLocation: "B-12",
		IsActive:          true,
	})
	if err != nil {
		t.Fatalf("Seed product %s: %v", id, err)
	}
}

func TestAddToCartGuards(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-CEL-03", "SKU-CEL-03", "Celery Bunch", 0.99, 12)

	msg, err := tools.AddToCart(ctx, db, "", "PROD-CEL-03", 1)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if !strings.Contains(msg, "sign in") {
		t.Errorf("Expected sign-in message for missing user, got: %q", msg)
	}

	msg, err = tools.AddToCart(ctx, db, "user-1", "PROD-CEL-03", 0)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if !strings.Contains(msg, "quantity must be at least 1") {
		t.Errorf("Expected invalid-quantity message, got: %q", msg)
	}

	msg, err = tools.AddToCart(ctx, db, "user-1", "PROD-CEL-03", -3)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if !strings.Contains(msg, "quantity must be at least 1") {
		t.Errorf("Expected invalid-quantity message for negative quantity, got: %q", msg)
	}

	msg, err = tools.AddToCart(ctx, db, "user-1", "PROD-XYZ", 1)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if !strings.Contains(msg, "'PROD-XYZ' was not found") {
		t.Errorf("Expected not-found message naming the id, got: %q", msg)
	}

	// None of the rejected adds may have created a line.
	view, err := tools.ViewCart(ctx, db, "user-1")
	if err != nil {
		t.Fatalf("ViewCart: %v", err)
	}
	if view != "Your cart is empty." {
		t.Errorf("Expected empty cart, got: %q", view)
	}
}

func TestAddAndViewCart(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-MLK-01", "SKU-MLK-01", "Whole Milk 1L", 1.50, 10)
	seedProduct(t, db, "PROD-BRD-01", "SKU-BRD-01", "Sourdough Bread", 3.20, 6)

	msg, err := tools.AddToCart(ctx, db, "user-2", "PROD-MLK-01", 2)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if msg != "Added 2 x 'Whole Milk 1L' to your cart." {
		t.Errorf("Unexpected confirmation: %q", msg)
	}

	if _, err := tools.AddToCart(ctx, db, "user-2", "PROD-BRD-01", 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	view, err := tools.ViewCart(ctx, db, "user-2")
	if err != nil {
		t.Fatalf("ViewCart: %v", err)
	}

	milkIdx := strings.Index(view, "Whole Milk 1L (x2)")
	breadIdx := strings.Index(view, "Sourdough Bread (x1)")
	if milkIdx == -1 || breadIdx == -1 {
		t.Fatalf("Cart view missing lines: %q", view)
	}
	if milkIdx > breadIdx {
		t.Errorf("Expected insertion order (milk before bread): %q", view)
	}
	if !strings.Contains(view, "Estimated total: $6.20") {
		t.Errorf("Expected total 6.20 in view: %q", view)
	}
	if !strings.Contains(view, "$1.50 each | 10 available") {
		t.Errorf("Expected unit price and availability: %q", view)
	}
}

func TestRemoveFromCartMessages(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-OIL-01", "SKU-OIL-01", "Olive Oil 500ml", 6.75, 8)

	if _, err := tools.AddToCart(ctx, db, "user-3", "PROD-OIL-01", 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	msg, err := tools.RemoveFromCart(ctx, db, "user-3", "PROD-OIL-01")
	if err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if msg != "Removed the product from your cart." {
		t.Errorf("Unexpected removal message: %q", msg)
	}

	msg, err = tools.RemoveFromCart(ctx, db, "user-3", "PROD-OIL-01")
	if err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if msg != "That product was not in your cart." {
		t.Errorf("Unexpected not-present message: %q", msg)
	}
}

func TestCheckoutMessages(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-COF-01", "SKU-COF-01", "Ground Coffee", 2.50, 10)
	seedProduct(t, db, "PROD-CHS-01", "SKU-CHS-01", "Cheddar Cheese", 5.00, 3)

	msg, err := tools.Checkout(ctx, db, "user-4")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if msg != "Your cart is empty." {
		t.Errorf("Expected empty-cart message, got: %q", msg)
	}

	// Shortage report names the line with requested vs available.
	if _, err := tools.AddToCart(ctx, db, "user-4", "PROD-CHS-01", 5); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	msg, err = tools.Checkout(ctx, db, "user-4")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !strings.Contains(msg, "Cheddar Cheese: you want 5, but only 3 left.") {
		t.Errorf("Expected itemized shortage, got: %q", msg)
	}
	if !strings.Contains(msg, "adjust your cart") {
		t.Errorf("Expected adjustment offer, got: %q", msg)
	}

	// The cart is untouched, fix it and buy coffee instead.
	if _, err := tools.RemoveFromCart(ctx, db, "user-4", "PROD-CHS-01"); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if _, err := tools.AddToCart(ctx, db, "user-4", "PROD-COF-01", 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	msg, err = tools.Checkout(ctx, db, "user-4")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !strings.Contains(msg, "Purchase complete! Order ORD-") {
		t.Errorf("Expected receipt header, got: %q", msg)
	}
	if !strings.Contains(msg, "- 2 x Ground Coffee ($2.50 each)") {
		t.Errorf("Expected receipt line, got: %q", msg)
	}
	if !strings.Contains(msg, "Total paid: $5.00") {
		t.Errorf("Expected total paid, got: %q", msg)
	}

	view, err := tools.ViewCart(ctx, db, "user-4")
	if err != nil {
		t.Fatalf("ViewCart: %v", err)
	}
	if view != "Your cart is empty." {
		t.Errorf("Cart should be empty after purchase, got: %q", view)
	}
}

func TestSearchProductsFormatting(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-MLK-01", "SKU-MLK-01", "Whole Milk 1L", 1.50, 10)
	seedProduct(t, db, "PROD-MLK-02", "SKU-MLK-02", "Almond Milk 1L", 2.80, 4)

	msg, err := tools.SearchProducts(ctx, db, store.ProductFilter{NameSubstring: "nothing-here"})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if !strings.Contains(msg, "No products were found") {
		t.Errorf("Expected no-results message, got: %q", msg)
	}

	msg, err = tools.SearchProducts(ctx, db, store.ProductFilter{ID: "PROD-MLK-01"})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	for _, want := range []string{
		"Whole Milk 1L",
		"- ID: PROD-MLK-01",
		"- SKU: SKU-MLK-01",
		"- Unit price: $1.50",
		"- Available stock: 10 units (Total: 10, Reserved: 0)",
		"- Total inventory value: $15.00",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Detail card missing %q: %q", want, msg)
		}
	}

	msg, err = tools.SearchProducts(ctx, db, store.ProductFilter{NameSubstring: "milk"})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if !strings.Contains(msg, "Found 2 products:") {
		t.Errorf("Expected multi-result header, got: %q", msg)
	}
	if !strings.Contains(msg, "1. Almond Milk 1L (SKU: SKU-MLK-02) - $2.80 - Stock: 4 units") {
		t.Errorf("Expected name-ordered list entry, got: %q", msg)
	}
}

func TestCompareProducts(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedProduct(t, db, "PROD-MLK-01", "SKU-MLK-01", "Whole Milk 1L", 1.50, 10)
	seedProduct(t, db, "PROD-MLK-02", "SKU-MLK-02", "Almond Milk 1L", 2.80, 4)

	msg, err := tools.CompareProducts(ctx, db, []string{"whole milk"})
	if err != nil {
		t.Fatalf("CompareProducts: %v", err)
	}
	if !strings.Contains(msg, "at least 2 product names") {
		t.Errorf("Expected arity message, got: %q", msg)
	}

	msg, err = tools.CompareProducts(ctx, db, []string{"whole milk", "unobtainium"})
	if err != nil {
		t.Fatalf("CompareProducts: %v", err)
	}
	if !strings.Contains(msg, "Some products were not found") {
		t.Errorf("Expected partial-match message, got: %q", msg)
	}

	msg, err = tools.CompareProducts(ctx, db, []string{"whole milk", "almond milk"})
	if err != nil {
		t.Fatalf("CompareProducts: %v", err)
	}
	if !strings.Contains(msg, "PRODUCT COMPARISON") {
		t.Errorf("Expected comparison header, got: %q", msg)
	}
	if !strings.Contains(msg, "- Cheapest: Whole Milk 1L ($1.50)") {
		t.Errorf("Expected cheapest analysis, got: %q", msg)
	}
	if !strings.Contains(msg, "- Most available: Whole Milk 1L (10 units)") {
		t.Errorf("Expected availability analysis, got: %q", msg)
	}
}
