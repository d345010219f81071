package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tiendago/go-cart-engine/internal/models"
	"github.com/tiendago/go-cart-engine/internal/store"
)

// SearchProducts looks up products by exact ID, exact SKU or a
// case-insensitive name fragment and renders the matches. A single
// match gets a full detail card; multiple matches a summary list.
func SearchProducts(ctx context.Context, db *sql.DB, filter store.ProductFilter) (string, error) {
	products, err := store.SearchProducts(ctx, db, filter)
	if err != nil {
		return "", err
	}

	if len(products) == 0 {
		return "No products were found matching those criteria.", nil
	}

	if len(products) == 1 {
		return formatProductCard(products[0]), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products:\n\n", len(products))
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s (SKU: %s) - $%s - Stock: %d units\n",
			i+1, p.Name, p.SKU, p.UnitCost.StringFixed(2), p.QuantityAvailable)
	}
	return b.String(), nil
}

func formatProductCard(p models.Product) string {
	status := "Available"
	if !p.IsActive {
		status = "Not available"
	}

	totalValue := p.UnitCost.Mul(decimal.NewFromInt(int64(p.QuantityOnHand)))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Name)
	fmt.Fprintf(&b, "- ID: %s\n", p.ID)
	fmt.Fprintf(&b, "- SKU: %s\n", p.SKU)
	if p.SupplierName != "" {
		fmt.Fprintf(&b, "- Supplier: %s\n", p.SupplierName)
	}
	fmt.Fprintf(&b, "- Unit price: $%s\n", p.UnitCost.StringFixed(2))
	fmt.Fprintf(&b, "- Available stock: %d units (Total: %d, Reserved: %d)\n",
		p.QuantityAvailable, p.QuantityOnHand, p.QuantityReserved)
	if p.WarehouseLocation != "" {
		fmt.Fprintf(&b, "- Location: %s\n", p.WarehouseLocation)
	}
	fmt.Fprintf(&b, "- Status: %s\n", status)
	fmt.Fprintf(&b, "- Total inventory value: $%s", totalValue.StringFixed(2))
	return b.String()
}

// CompareProducts renders a side-by-side table for two or more
// products resolved by name fragment, plus a cheapest/most-available
// summary.
func CompareProducts(ctx context.Context, db *sql.DB, names []string) (string, error) {
	if len(names) < 2 {
		return "You need to provide at least 2 product names to compare.", nil
	}

	var found []models.Product
	for _, name := range names {
		matches, err := store.SearchProducts(ctx, db, store.ProductFilter{NameSubstring: name})
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			found = append(found, matches[0])
		}
	}

	if len(found) == 0 {
		return "No products were found to compare.", nil
	}
	if len(found) < len(names) {
		foundNames := make([]string, len(found))
		for i, p := range found {
			foundNames[i] = p.Name
		}
		return "Some products were not found. Found: " + strings.Join(foundNames, ", "), nil
	}

	var b strings.Builder
	b.WriteString("PRODUCT COMPARISON\n\n")

	header := make([]string, len(found))
	prices := make([]string, len(found))
	stocks := make([]string, len(found))
	totals := make([]string, len(found))
	suppliers := make([]string, len(found))
	locations := make([]string, len(found))
	skus := make([]string, len(found))
	for i, p := range found {
		header[i] = p.Name
		prices[i] = "$" + p.UnitCost.StringFixed(2)
		stocks[i] = fmt.Sprintf("%d", p.QuantityAvailable)
		totals[i] = fmt.Sprintf("%d", p.QuantityOnHand)
		suppliers[i] = p.SupplierName
		locations[i] = p.WarehouseLocation
		skus[i] = p.SKU
	}

	fmt.Fprintf(&b, "| Feature | %s |\n", strings.Join(header, " | "))
	b.WriteString("|" + strings.Repeat("---|", len(found)+1) + "\n")
	fmt.Fprintf(&b, "| Price | %s |\n", strings.Join(prices, " | "))
	fmt.Fprintf(&b, "| Available stock | %s |\n", strings.Join(stocks, " | "))
	fmt.Fprintf(&b, "| Total stock | %s |\n", strings.Join(totals, " | "))
	fmt.Fprintf(&b, "| Supplier | %s |\n", strings.Join(suppliers, " | "))
	fmt.Fprintf(&b, "| Location | %s |\n", strings.Join(locations, " | "))
	fmt.Fprintf(&b, "| SKU | %s |\n", strings.Join(skus, " | "))

	cheapest := found[0]
	mostStock := found[0]
	for _, p := range found[1:] {
		if p.UnitCost.LessThan(cheapest.UnitCost) {
			cheapest = p
		}
		if p.QuantityAvailable > mostStock.QuantityAvailable {
			mostStock = p
		}
	}

	b.WriteString("\nAnalysis:\n")
	fmt.Fprintf(&b, "- Cheapest: %s ($%s)\n", cheapest.Name, cheapest.UnitCost.StringFixed(2))
	fmt.Fprintf(&b, "- Most available: %s (%d units)\n", mostStock.Name, mostStock.QuantityAvailable)

	return b.String(), nil
}
