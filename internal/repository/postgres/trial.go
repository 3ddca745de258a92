package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// TrialRepository implements trial.Repository
type TrialRepository struct {
	db *sql.DB
}

// NewTrialRepository creates a new trial repository
func NewTrialRepository(db *sql.DB) trial.Repository {
	return &TrialRepository{db: db}
}

const trialSelect = `
	SELECT t.id, t.user_id, t.product_id, COALESCE(p.name, ''), COALESCE(u.email, ''), t.status,
		t.started_at, t.expires_at, t.converted_at, t.cancelled_at, t.reminder_sent_at,
		t.created_at, t.updated_at
	FROM trials t
	LEFT JOIN products p ON p.id = t.product_id
	LEFT JOIN users u ON u.id = t.user_id`

// Create creates a new trial; a second trial for the same user and product is a conflict
func (r *TrialRepository) Create(ctx context.Context, t *trial.Trial) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO trials (user_id, product_id, status, started_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, t.UserID, t.ProductID, string(t.Status), t.StartedAt.Unix(), t.ExpiresAt.Unix(),
		now.Unix(), now.Unix(),
	).Scan(&t.ID)
	if err != nil {
		return wrapWrite(err, "Trial for this product", "Failed to create trial")
	}
	return nil
}

// GetByID retrieves a trial by ID
func (r *TrialRepository) GetByID(ctx context.Context, id int64) (*trial.Trial, error) {
	return r.getOne(ctx, trialSelect+" WHERE t.id = $1", id)
}

// GetByUserProduct retrieves the trial of a user for a product
func (r *TrialRepository) GetByUserProduct(ctx context.Context, userID, productID int64) (*trial.Trial, error) {
	return r.getOne(ctx, trialSelect+" WHERE t.user_id = $1 AND t.product_id = $2", userID, productID)
}

func (r *TrialRepository) getOne(ctx context.Context, query string, args ...interface{}) (*trial.Trial, error) {
	t, err := scanTrial(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Trial")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get trial", err)
	}
	return t, nil
}

// List lists trials newest first
func (r *TrialRepository) List(ctx context.Context, filter trial.Filter) ([]*trial.Trial, int64, error) {
	var p placeholders
	var where []string

	if filter.UserID > 0 {
		where = append(where, "t.user_id = "+p.add(filter.UserID))
	}
	if filter.ProductID > 0 {
		where = append(where, "t.product_id = "+p.add(filter.ProductID))
	}
	switch {
	case filter.Status == "":
	case filter.AsOf.IsZero():
		where = append(where, "t.status = "+p.add(string(filter.Status)))
	case filter.Status == trial.StatusActive:
		where = append(where, "t.status = 'active' AND t.expires_at > "+p.add(filter.AsOf.Unix()))
	case filter.Status == trial.StatusExpired:
		where = append(where, "(t.status = 'expired' OR (t.status = 'active' AND t.expires_at <= "+p.add(filter.AsOf.Unix())+"))")
	default:
		where = append(where, "t.status = "+p.add(string(filter.Status)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trials t"+clause, p.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count trials", err)
	}

	query := trialSelect + clause + " ORDER BY t.started_at DESC, t.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + p.add(filter.Limit) + " OFFSET " + p.add(filter.Offset)
	}

	trials, err := r.query(ctx, query, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return trials, total, nil
}

func (r *TrialRepository) query(ctx context.Context, query string, args ...interface{}) ([]*trial.Trial, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list trials", err)
	}
	defer rows.Close()

	trials := []*trial.Trial{}
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan trial", err)
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list trials", err)
	}
	return trials, nil
}

// Update persists status, expiry and lifecycle timestamps
func (r *TrialRepository) Update(ctx context.Context, t *trial.Trial) error {
	t.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE trials
		SET status = $1, expires_at = $2, converted_at = $3, cancelled_at = $4, reminder_sent_at = $5,
			updated_at = $6
		WHERE id = $7
	`, string(t.Status), t.ExpiresAt.Unix(), nullUnix(t.ConvertedAt), nullUnix(t.CancelledAt),
		nullUnix(t.ReminderSentAt), t.UpdatedAt.Unix(), t.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update trial", err)
	}
	return checkAffected(res, "Trial")
}

// ExpireDue marks due active trials as expired and returns them
func (r *TrialRepository) ExpireDue(ctx context.Context, now time.Time) ([]*trial.Trial, error) {
	due, err := r.query(ctx, trialSelect+" WHERE t.status = $1 AND t.expires_at <= $2 ORDER BY t.id",
		string(trial.StatusActive), now.Unix())
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return due, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	expired := make([]*trial.Trial, 0, len(due))
	for _, t := range due {
		// guard on status so a concurrent conversion wins
		res, err := tx.ExecContext(ctx, `
			UPDATE trials SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
		`, string(trial.StatusExpired), now.Unix(), t.ID, string(trial.StatusActive))
		if err != nil {
			return nil, errors.DatabaseError("Failed to expire trial", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		t.Status = trial.StatusExpired
		t.UpdatedAt = now
		expired = append(expired, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("Failed to commit trial expiry", err)
	}
	return expired, nil
}

// DueForReminder lists active trials expiring before cutoff with no reminder sent
func (r *TrialRepository) DueForReminder(ctx context.Context, now, cutoff time.Time) ([]*trial.Trial, error) {
	return r.query(ctx, trialSelect+`
		WHERE t.status = $1 AND t.reminder_sent_at IS NULL AND t.expires_at > $2 AND t.expires_at <= $3
		ORDER BY t.expires_at
	`, string(trial.StatusActive), now.Unix(), cutoff.Unix())
}

// CountByStatus counts trials per status
// CountByStatus counts active trials already past asOf as expired.
func (r *TrialRepository) CountByStatus(ctx context.Context, asOf time.Time) (map[trial.Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CASE WHEN status = 'active' AND expires_at <= $1 THEN 'expired' ELSE status END AS effective, COUNT(*)
		FROM trials GROUP BY effective`, asOf.Unix())
	if err != nil {
		return nil, errors.DatabaseError("Failed to count trials", err)
	}
	defer rows.Close()

	counts := map[trial.Status]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan trial counts", err)
		}
		counts[trial.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to count trials", err)
	}
	return counts, nil
}

func scanTrial(s rowScanner) (*trial.Trial, error) {
	var t trial.Trial
	var status string
	var convertedAt, cancelledAt, reminderAt sql.NullInt64
	var startedAt, expiresAt, createdAt, updatedAt int64

	err := s.Scan(&t.ID, &t.UserID, &t.ProductID, &t.ProductName, &t.UserEmail, &status,
		&startedAt, &expiresAt, &convertedAt, &cancelledAt, &reminderAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = trial.Status(status)
	t.StartedAt = time.Unix(startedAt, 0)
	t.ExpiresAt = time.Unix(expiresAt, 0)
	t.ConvertedAt = timePtr(convertedAt)
	t.CancelledAt = timePtr(cancelledAt)
	t.ReminderSentAt = timePtr(reminderAt)
	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	return &t, nil
}
