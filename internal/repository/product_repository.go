package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhub/coupon-platform/internal/model"
)

// ProductRepository provides data access for the product catalog using pgx.
type ProductRepository struct {
	pool PoolInterface
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// NewProductRepositoryWithPool creates a new ProductRepository with a custom
// pool interface. This is primarily used for testing.
func NewProductRepositoryWithPool(pool PoolInterface) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, category, price, is_active`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.IsActive)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert inserts a new product.
func (r *ProductRepository) Insert(ctx context.Context, product *model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, category, price, is_active) VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.Name, product.Category, product.Price, product.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its id.
// Returns nil, nil if the product is not found.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

// ListActive returns all active products ordered by name.
func (r *ProductRepository) ListActive(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// FirstActive returns any active product, used by the demo purchase flow when
// the submitted product id is unknown.
// Returns nil, nil when the catalog is empty.
func (r *ProductRepository) FirstActive(ctx context.Context) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY name LIMIT 1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get first active product: %w", err)
	}
	return product, nil
}
