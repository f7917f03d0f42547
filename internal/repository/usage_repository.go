package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/pkg/database"
)

// UsageRepository provides data access for coupon usage records using pgx.
type UsageRepository struct {
	pool PoolInterface
}

// NewUsageRepository creates a new UsageRepository with the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// NewUsageRepositoryWithPool creates a new UsageRepository with a custom pool
// interface. This is primarily used for testing.
func NewUsageRepositoryWithPool(pool PoolInterface) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Insert writes one usage record within a transaction. Usage is append-only;
// there is no update or delete path.
func (r *UsageRepository) Insert(ctx context.Context, tx database.TxQuerier, usage *model.CouponUsage) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO coupon_usage (id, coupon_id, user_ref, order_value, discount)
		 VALUES ($1, $2, $3, $4, $5)`,
		usage.ID, usage.CouponID, usage.UserRef, usage.OrderValue, usage.Discount)
	if err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

// CountAll returns the total number of usage records.
func (r *UsageRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}

// ListByCoupon returns the usage history of one coupon, oldest first.
func (r *UsageRepository) ListByCoupon(ctx context.Context, couponID string) ([]*model.CouponUsage, error) {
	query := `SELECT id, coupon_id, user_ref, order_value, discount, created_at
		FROM coupon_usage WHERE coupon_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, couponID)
	if err != nil {
		return nil, fmt.Errorf("list usage for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	usages := []*model.CouponUsage{}
	for rows.Next() {
		var u model.CouponUsage
		if err := rows.Scan(&u.ID, &u.CouponID, &u.UserRef, &u.OrderValue, &u.Discount, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		usages = append(usages, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage rows: %w", err)
	}
	return usages, nil
}
