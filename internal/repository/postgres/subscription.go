package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// SubscriptionRepository implements subscription.Repository
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) subscription.Repository {
	return &SubscriptionRepository{db: db}
}

const subscriptionSelect = `
	SELECT s.id, s.user_id, s.product_id, s.order_id, COALESCE(p.name, ''), COALESCE(u.email, ''),
		s.status, s.billing_interval, s.current_period_start, s.current_period_end,
		s.paused_at, s.cancelled_at, s.created_at, s.updated_at
	FROM subscriptions s
	LEFT JOIN products p ON p.id = s.product_id
	LEFT JOIN users u ON u.id = s.user_id`

// Create creates a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, product_id, order_id, status, billing_interval,
			current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.UserID, s.ProductID, nullInt64(s.OrderID), string(s.Status), s.Interval,
		s.CurrentPeriodStart.Unix(), s.CurrentPeriodEnd.Unix(), now.Unix(), now.Unix(),
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("User already has an active subscription to this product")
		}
		return errors.DatabaseError("Failed to create subscription", err)
	}
	return nil
}

// GetByID retrieves a subscription by ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	return r.getOne(ctx, subscriptionSelect+" WHERE s.id = $1", id)
}

// GetByOrderID retrieves the subscription created by an order
func (r *SubscriptionRepository) GetByOrderID(ctx context.Context, orderID int64) (*subscription.Subscription, error) {
	return r.getOne(ctx, subscriptionSelect+" WHERE s.order_id = $1", orderID)
}

// GetLive retrieves the active or paused subscription of a user for a product
func (r *SubscriptionRepository) GetLive(ctx context.Context, userID, productID int64) (*subscription.Subscription, error) {
	return r.getOne(ctx, subscriptionSelect+`
		WHERE s.user_id = $1 AND s.product_id = $2 AND s.status IN ($3, $4)
		ORDER BY s.id DESC LIMIT 1
	`, userID, productID, string(subscription.StatusActive), string(subscription.StatusPaused))
}

func (r *SubscriptionRepository) getOne(ctx context.Context, query string, args ...interface{}) (*subscription.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Subscription")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}
	return s, nil
}

// List lists subscriptions newest first
func (r *SubscriptionRepository) List(ctx context.Context, filter subscription.Filter) ([]*subscription.Subscription, int64, error) {
	var p placeholders
	var where []string

	if filter.UserID > 0 {
		where = append(where, "s.user_id = "+p.add(filter.UserID))
	}
	if filter.ProductID > 0 {
		where = append(where, "s.product_id = "+p.add(filter.ProductID))
	}
	if filter.Status != "" {
		where = append(where, "s.status = "+p.add(string(filter.Status)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions s"+clause, p.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count subscriptions", err)
	}

	query := subscriptionSelect + clause + " ORDER BY s.created_at DESC, s.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + p.add(filter.Limit) + " OFFSET " + p.add(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list subscriptions", err)
	}
	defer rows.Close()

	subs := []*subscription.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan subscription", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list subscriptions", err)
	}
	return subs, total, nil
}

// Update persists status and period fields
func (r *SubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	s.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1, billing_interval = $2, current_period_start = $3, current_period_end = $4,
			paused_at = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $8
	`, string(s.Status), s.Interval, s.CurrentPeriodStart.Unix(), s.CurrentPeriodEnd.Unix(),
		nullUnix(s.PausedAt), nullUnix(s.CancelledAt), s.UpdatedAt.Unix(), s.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update subscription", err)
	}
	return checkAffected(res, "Subscription")
}

// ExpireDue marks active subscriptions whose period has ended as expired
func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = $2
		WHERE status = $3 AND current_period_end <= $4
	`, string(subscription.StatusExpired), now.Unix(), string(subscription.StatusActive), now.Unix())
	if err != nil {
		return 0, errors.DatabaseError("Failed to expire subscriptions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to read affected rows", err)
	}
	return n, nil
}

// CountByStatus counts subscriptions in a status
func (r *SubscriptionRepository) CountByStatus(ctx context.Context, status subscription.Status) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions WHERE status = $1", string(status)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count subscriptions", err)
	}
	return n, nil
}

func scanSubscription(sc rowScanner) (*subscription.Subscription, error) {
	var s subscription.Subscription
	var orderID, pausedAt, cancelledAt sql.NullInt64
	var status string
	var start, end, createdAt, updatedAt int64

	err := sc.Scan(&s.ID, &s.UserID, &s.ProductID, &orderID, &s.ProductName, &s.UserEmail,
		&status, &s.Interval, &start, &end, &pausedAt, &cancelledAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.OrderID = int64Ptr(orderID)
	s.Status = subscription.Status(status)
	s.CurrentPeriodStart = time.Unix(start, 0)
	s.CurrentPeriodEnd = time.Unix(end, 0)
	s.PausedAt = timePtr(pausedAt)
	s.CancelledAt = timePtr(cancelledAt)
	s.CreatedAt = time.Unix(createdAt, 0)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}
