package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/models"
)

const productColumns = `
	product_id, product_name, product_sku, supplier_name, unit_cost,
	quantity_on_hand, quantity_reserved, quantity_available,
	minimum_stock_level, reorder_point, optimal_stock_level,
	warehouse_location, is_active, created_at, updated_at`

// ProductFilter selects products by exact ID, exact SKU or a
// case-insensitive name substring. Precedence is ID > SKU > name; with
// no field set, all active products match.
type ProductFilter struct {
	ID            string
	SKU           string
	NameSubstring string
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.SupplierName,
		&p.UnitCost,
		&p.QuantityOnHand,
		&p.QuantityReserved,
		&p.QuantityAvailable,
		&p.MinimumStockLevel,
		&p.ReorderPoint,
		&p.OptimalStockLevel,
		&p.WarehouseLocation,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func CreateProduct(ctx context.Context, db *sql.DB, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (
			product_id, product_name, product_sku, supplier_name, unit_cost,
			quantity_on_hand, quantity_reserved, quantity_available,
			minimum_stock_level, reorder_point, optimal_stock_level,
			warehouse_location, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING ` + productColumns

	row := db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.SKU, p.SupplierName, p.UnitCost,
		p.QuantityOnHand, p.QuantityReserved, p.QuantityAvailable,
		p.MinimumStockLevel, p.ReorderPoint, p.OptimalStockLevel,
		p.WarehouseLocation, p.IsActive)

	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func GetProduct(ctx context.Context, q database.Querier, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`

	product, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// SearchProducts returns matching products ordered by name, so results
// render deterministically for the caller.
func SearchProducts(ctx context.Context, db *sql.DB, filter ProductFilter) ([]models.Product, error) {
	where := "is_active = TRUE"
	var args []any

	switch {
	case filter.ID != "":
		where = "product_id = $1"
		args = append(args, filter.ID)
	case filter.SKU != "":
		where = "product_sku = $1"
		args = append(args, filter.SKU)
	case filter.NameSubstring != "":
		where = "product_name ILIKE $1"
		args = append(args, "%"+filter.NameSubstring+"%")
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` + where + ` ORDER BY product_name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// DecrementStock atomically reduces both on-hand and available
// quantity for an active product. The WHERE guard keeps availability
// non-negative even if a caller skipped validation; zero rows affected
// is resolved to a not-found or a conflict, never silently ignored.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET quantity_on_hand = quantity_on_hand - $1,
		     quantity_available = quantity_available - $1,
		     updated_at = NOW()
		 WHERE product_id = $2
		   AND is_active = TRUE
		   AND quantity_available >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1 AND is_active = TRUE)",
			productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return database.ErrProductNotFound
		}
		return database.ErrInsufficientStock
	}

	return nil
}
