package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/service"
)

// OrderRepository provides data access for purchase orders using pgx.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates a new OrderRepository with a custom pool
// interface. This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_number, customer_name, email, phone, total_amount,
	serial_number, product_id, created_at`

func scanOrder(row pgx.Row) (*model.PurchaseOrder, error) {
	var o model.PurchaseOrder
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerName,
		&o.Email,
		&o.Phone,
		&o.TotalAmount,
		&o.SerialNumber,
		&o.ProductID,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Insert inserts a new purchase order.
// Returns service.ErrOrderExists if the order number is already taken.
func (r *OrderRepository) Insert(ctx context.Context, order *model.PurchaseOrder) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO purchase_orders (id, order_number, customer_name, email, phone,
			total_amount, serial_number, product_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.OrderNumber, order.CustomerName, order.Email, order.Phone,
		order.TotalAmount, order.SerialNumber, order.ProductID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrOrderExists
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

// GetByID retrieves a purchase order by its id.
// Returns nil, nil if the order is not found (service layer handles this).
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order %s: %w", id, err)
	}
	return order, nil
}

// GetByOrderNumber retrieves a purchase order by its user-facing order number.
// Returns nil, nil if the order is not found.
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE order_number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order by number %s: %w", orderNumber, err)
	}
	return order, nil
}
