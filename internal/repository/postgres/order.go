package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// OrderRepository implements order.Repository
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) order.Repository {
	return &OrderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.user_id, o.product_id, COALESCE(p.name, ''), COALESCE(u.email, ''),
		o.amount_cents, o.currency, o.payment_method, o.status, o.payment_reference, o.checkout_url,
		o.paid_at, o.cancelled_at, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN products p ON p.id = o.product_id
	LEFT JOIN users u ON u.id = o.user_id`

// Create creates a new order
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, product_id, amount_cents, currency, payment_method, status,
			payment_reference, checkout_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, o.UserID, o.ProductID, o.AmountCents, o.Currency, string(o.PaymentMethod), string(o.Status),
		nullString(o.PaymentReference), nullString(o.CheckoutURL), now.Unix(), now.Unix(),
	).Scan(&o.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create order", err)
	}
	return nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Order")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get order", err)
	}
	return o, nil
}

// List lists orders newest first
func (r *OrderRepository) List(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	var p placeholders
	var where []string

	if filter.UserID > 0 {
		where = append(where, "o.user_id = "+p.add(filter.UserID))
	}
	if filter.ProductID > 0 {
		where = append(where, "o.product_id = "+p.add(filter.ProductID))
	}
	if filter.Status != "" {
		where = append(where, "o.status = "+p.add(string(filter.Status)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+clause, p.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count orders", err)
	}

	query := orderSelect + clause + " ORDER BY o.created_at DESC, o.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + p.add(filter.Limit) + " OFFSET " + p.add(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list orders", err)
	}
	defer rows.Close()

	orders := []*order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list orders", err)
	}
	return orders, total, nil
}

// Update updates an order's status and payment fields
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	o.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_reference = $2, checkout_url = $3, paid_at = $4, cancelled_at = $5,
			updated_at = $6
		WHERE id = $7
	`, string(o.Status), nullString(o.PaymentReference), nullString(o.CheckoutURL),
		nullUnix(o.PaidAt), nullUnix(o.CancelledAt), o.UpdatedAt.Unix(), o.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update order", err)
	}
	return checkAffected(res, "Order")
}

// Transition updates the order's status fields if its status is still from
func (r *OrderRepository) Transition(ctx context.Context, o *order.Order, from order.Status) (bool, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "orders", time.Since(start)) }()

	updatedAt := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_reference = $2, paid_at = $3, cancelled_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`, string(o.Status), nullString(o.PaymentReference), nullUnix(o.PaidAt), nullUnix(o.CancelledAt),
		updatedAt.Unix(), o.ID, string(from))
	if err != nil {
		return false, errors.DatabaseError("Failed to update order status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to read affected rows", err)
	}
	if n == 0 {
		return false, nil
	}
	o.UpdatedAt = updatedAt
	return true, nil
}

// HasPaid reports whether the user has a paid order for the product
func (r *OrderRepository) HasPaid(ctx context.Context, userID, productID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE user_id = $1 AND product_id = $2 AND status = $3
	`, userID, productID, string(order.StatusPaid)).Scan(&n)
	if err != nil {
		return false, errors.DatabaseError("Failed to check paid orders", err)
	}
	return n > 0, nil
}

// Stats aggregates order counts and paid revenue
func (r *OrderRepository) Stats(ctx context.Context, since time.Time) (*order.Stats, error) {
	stats := &order.Stats{
		ByStatus:          map[order.Status]int64{},
		ByPaymentMethod:   map[order.PaymentMethod]int64{},
		RevenueByCurrency: map[string]int64{},
		RevenueLast30Days: map[string]int64{},
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, payment_method, COUNT(*) FROM orders GROUP BY status, payment_method
	`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate orders", err)
	}
	for rows.Next() {
		var status, method string
		var n int64
		if err := rows.Scan(&status, &method, &n); err != nil {
			rows.Close()
			return nil, errors.DatabaseError("Failed to scan order stats", err)
		}
		stats.TotalOrders += n
		stats.ByStatus[order.Status(status)] += n
		stats.ByPaymentMethod[order.PaymentMethod(method)] += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to aggregate orders", err)
	}

	if err := r.sumRevenue(ctx, stats.RevenueByCurrency, 0); err != nil {
		return nil, err
	}
	if err := r.sumRevenue(ctx, stats.RevenueLast30Days, since.Unix()); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *OrderRepository) sumRevenue(ctx context.Context, into map[string]int64, since int64) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT currency, COALESCE(SUM(amount_cents), 0) FROM orders
		WHERE status = $1 AND COALESCE(paid_at, created_at) >= $2
		GROUP BY currency
	`, string(order.StatusPaid), since)
	if err != nil {
		return errors.DatabaseError("Failed to sum revenue", err)
	}
	defer rows.Close()

	for rows.Next() {
		var currency string
		var cents int64
		if err := rows.Scan(&currency, &cents); err != nil {
			return errors.DatabaseError("Failed to scan revenue", err)
		}
		into[currency] = cents
	}
	return rows.Err()
}

func scanOrder(s rowScanner) (*order.Order, error) {
	var o order.Order
	var method, status string
	var reference, checkoutURL sql.NullString
	var paidAt, cancelledAt sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(&o.ID, &o.UserID, &o.ProductID, &o.ProductName, &o.UserEmail,
		&o.AmountCents, &o.Currency, &method, &status, &reference, &checkoutURL,
		&paidAt, &cancelledAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = order.PaymentMethod(method)
	o.Status = order.Status(status)
	o.PaymentReference = stringPtr(reference)
	o.CheckoutURL = stringPtr(checkoutURL)
	o.PaidAt = timePtr(paidAt)
	o.CancelledAt = timePtr(cancelledAt)
	o.CreatedAt = time.Unix(createdAt, 0)
	o.UpdatedAt = time.Unix(updatedAt, 0)
	return &o, nil
}
