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
	"github.com/printhub/coupon-platform/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom
// pool interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, discount_type, discount_value, minimum_order_value,
	max_discount_amount, expires_at, usage_limit, used_count, status, is_active,
	product_id, purchase_order_id, created_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinimumOrderValue,
		&c.MaxDiscountAmount,
		&c.ExpiresAt,
		&c.UsageLimit,
		&c.UsedCount,
		&c.Status,
		&c.IsActive,
		&c.ProductID,
		&c.PurchaseOrderID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, minimum_order_value,
			max_discount_amount, expires_at, usage_limit, used_count, status, is_active,
			product_id, purchase_order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
		coupon.MinimumOrderValue, coupon.MaxDiscountAmount, coupon.ExpiresAt,
		coupon.UsageLimit, coupon.UsedCount, coupon.Status, coupon.IsActive,
		coupon.ProductID, coupon.PurchaseOrderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// CodeExists reports whether a coupon code is already taken. Lookup is
// case-insensitive, matching the user-facing code contract.
func (r *CouponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM coupons WHERE UPPER(code) = UPPER($1))`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return exists, nil
}

// GetByCode retrieves a coupon by its code, case-insensitively.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// The lock holds until the transaction completes, serializing concurrent
// applies of the same coupon.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1) FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// RecordUse increments used_count by one and flips status to USED when the
// limit is reached. Must be called within a transaction after locking the row.
func (r *CouponRepository) RecordUse(ctx context.Context, tx database.TxQuerier, id string) error {
	query := `UPDATE coupons
		SET used_count = used_count + 1,
		    status = CASE WHEN used_count + 1 >= usage_limit THEN 'USED' ELSE status END
		WHERE id = $1`

	_, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("record coupon use %s: %w", id, err)
	}
	return nil
}

// UpdateStatus sets the coupon status and returns the updated row.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) UpdateStatus(ctx context.Context, id string, status model.CouponStatus) (*model.Coupon, error) {
	query := `UPDATE coupons SET status = $2 WHERE id = $1 RETURNING ` + couponColumns

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("update coupon status %s: %w", id, err)
	}
	return coupon, nil
}

// ActiveByOrder returns the ACTIVE coupon linked to a purchase order, or
// nil, nil when none exists. The issuance flow treats one ACTIVE coupon per
// order as the intended multiplicity; the schema does not enforce it.
func (r *CouponRepository) ActiveByOrder(ctx context.Context, orderID string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE purchase_order_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at DESC LIMIT 1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active coupon for order %s: %w", orderID, err)
	}
	return coupon, nil
}

// List returns one page of coupons matching the filter, newest first.
func (r *CouponRepository) List(ctx context.Context, filter model.CouponListFilter, page model.Pagination) ([]*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons c` + listFilterClause(filter) +
		` ORDER BY c.created_at DESC LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.Status, "%"+filter.Search+"%", page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// Count returns the number of coupons matching the filter.
func (r *CouponRepository) Count(ctx context.Context, filter model.CouponListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM coupons c` + listFilterClause(filter)

	var count int
	if err := r.pool.QueryRow(ctx, query, filter.Status, "%"+filter.Search+"%").Scan(&count); err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return count, nil
}

// listFilterClause builds the shared WHERE clause for List and Count.
// $1 is the status filter, $2 the search pattern; empty values disable the
// corresponding predicate.
func listFilterClause(filter model.CouponListFilter) string {
	return ` LEFT JOIN purchase_orders po ON po.id = c.purchase_order_id
		WHERE ($1 = '' OR c.status = $1)
		  AND ($2 = '%%' OR c.code ILIKE $2 OR po.customer_name ILIKE $2 OR po.email ILIKE $2)`
}

// Recent returns the most recently created coupons.
func (r *CouponRepository) Recent(ctx context.Context, limit int) ([]*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// CountByStatus returns the number of coupons in the given stored status.
func (r *CouponRepository) CountByStatus(ctx context.Context, status model.CouponStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count coupons by status %s: %w", status, err)
	}
	return count, nil
}

// CountAll returns the total number of coupons.
func (r *CouponRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return count, nil
}
