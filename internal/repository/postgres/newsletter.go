package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// NewsletterRepository implements newsletter.Repository
type NewsletterRepository struct {
	db *sql.DB
}

// NewNewsletterRepository creates a new newsletter repository
func NewNewsletterRepository(db *sql.DB) newsletter.Repository {
	return &NewsletterRepository{db: db}
}

const subscriberColumns = `id, email, name, status, source, unsubscribe_token, subscribed_at, unsubscribed_at`

const messageColumns = `id, subject, body, status, recipient_count, sent_count, failed_count, created_by,
	sent_at, created_at, updated_at`

// CreateSubscriber adds an address to the list
func (r *NewsletterRepository) CreateSubscriber(ctx context.Context, s *newsletter.Subscriber) error {
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscribers (email, name, status, source, unsubscribe_token, subscribed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.Email, nullString(s.Name), string(s.Status), s.Source, s.UnsubscribeToken, s.SubscribedAt.Unix(),
	).Scan(&s.ID)
	if err != nil {
		return wrapWrite(err, "Subscriber", "Failed to create subscriber")
	}
	return nil
}

// GetSubscriberByID retrieves a subscriber by ID
func (r *NewsletterRepository) GetSubscriberByID(ctx context.Context, id int64) (*newsletter.Subscriber, error) {
	return r.getSubscriber(ctx, "SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE id = $1", id)
}

// GetSubscriberByEmail retrieves a subscriber by email
func (r *NewsletterRepository) GetSubscriberByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	return r.getSubscriber(ctx, "SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE email = $1", email)
}

// GetSubscriberByToken retrieves a subscriber by unsubscribe token
func (r *NewsletterRepository) GetSubscriberByToken(ctx context.Context, token string) (*newsletter.Subscriber, error) {
	return r.getSubscriber(ctx, "SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE unsubscribe_token = $1", token)
}

func (r *NewsletterRepository) getSubscriber(ctx context.Context, query string, arg interface{}) (*newsletter.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Subscriber")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscriber", err)
	}
	return s, nil
}

// UpdateSubscriber persists name, status, source and timestamps
func (r *NewsletterRepository) UpdateSubscriber(ctx context.Context, s *newsletter.Subscriber) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers
		SET name = $1, status = $2, source = $3, subscribed_at = $4, unsubscribed_at = $5
		WHERE id = $6
	`, nullString(s.Name), string(s.Status), s.Source, s.SubscribedAt.Unix(), nullUnix(s.UnsubscribedAt), s.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update subscriber", err)
	}
	return checkAffected(res, "Subscriber")
}

// DeleteSubscriber removes an address from the list
func (r *NewsletterRepository) DeleteSubscriber(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM newsletter_subscribers WHERE id = $1", id)
	if err != nil {
		return errors.DatabaseError("Failed to delete subscriber", err)
	}
	return checkAffected(res, "Subscriber")
}

// ListSubscribers lists subscribers newest first
func (r *NewsletterRepository) ListSubscribers(ctx context.Context, filter newsletter.SubscriberFilter) ([]*newsletter.Subscriber, int64, error) {
	var p placeholders
	var where []string

	if filter.Status != "" {
		where = append(where, "status = "+p.add(string(filter.Status)))
	}
	if filter.Search != "" {
		like := p.add("%" + strings.ToLower(filter.Search) + "%")
		where = append(where, "(LOWER(email) LIKE "+like+" OR LOWER(COALESCE(name, '')) LIKE "+like+")")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_subscribers"+clause, p.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count subscribers", err)
	}

	query := "SELECT " + subscriberColumns + " FROM newsletter_subscribers" + clause + " ORDER BY subscribed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + p.add(filter.Limit) + " OFFSET " + p.add(filter.Offset)
	}

	subs, err := r.querySubscribers(ctx, query, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// ActiveSubscribers returns every subscribed address
func (r *NewsletterRepository) ActiveSubscribers(ctx context.Context) ([]*newsletter.Subscriber, error) {
	return r.querySubscribers(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE status = $1 ORDER BY id",
		string(newsletter.SubscriberSubscribed))
}

func (r *NewsletterRepository) querySubscribers(ctx context.Context, query string, args ...interface{}) ([]*newsletter.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list subscribers", err)
	}
	defer rows.Close()

	subs := []*newsletter.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan subscriber", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list subscribers", err)
	}
	return subs, nil
}

// CountSubscribers counts subscribers, optionally by status
func (r *NewsletterRepository) CountSubscribers(ctx context.Context, status newsletter.SubscriberStatus) (int64, error) {
	var n int64
	var err error
	if status == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_subscribers").Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_subscribers WHERE status = $1", string(status)).Scan(&n)
	}
	if err != nil {
		return 0, errors.DatabaseError("Failed to count subscribers", err)
	}
	return n, nil
}

// CreateMessage stores a new newsletter issue
func (r *NewsletterRepository) CreateMessage(ctx context.Context, m *newsletter.Message) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_messages (subject, body, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, m.Subject, m.Body, string(m.Status), m.CreatedBy, now.Unix(), now.Unix()).Scan(&m.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create newsletter message", err)
	}
	return nil
}

// GetMessage retrieves a newsletter issue
func (r *NewsletterRepository) GetMessage(ctx context.Context, id int64) (*newsletter.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM newsletter_messages WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Newsletter message")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get newsletter message", err)
	}
	return m, nil
}

// UpdateMessage persists content, status and delivery counters
func (r *NewsletterRepository) UpdateMessage(ctx context.Context, m *newsletter.Message) error {
	m.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_messages
		SET subject = $1, body = $2, status = $3, recipient_count = $4, sent_count = $5, failed_count = $6,
			sent_at = $7, updated_at = $8
		WHERE id = $9
	`, m.Subject, m.Body, string(m.Status), m.RecipientCount, m.SentCount, m.FailedCount,
		nullUnix(m.SentAt), m.UpdatedAt.Unix(), m.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update newsletter message", err)
	}
	return checkAffected(res, "Newsletter message")
}

// DeleteMessage removes a newsletter issue
func (r *NewsletterRepository) DeleteMessage(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM newsletter_messages WHERE id = $1", id)
	if err != nil {
		return errors.DatabaseError("Failed to delete newsletter message", err)
	}
	return checkAffected(res, "Newsletter message")
}

// ListMessages lists newsletter issues newest first
func (r *NewsletterRepository) ListMessages(ctx context.Context, limit, offset int) ([]*newsletter.Message, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_messages").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count newsletter messages", err)
	}

	var p placeholders
	query := "SELECT " + messageColumns + " FROM newsletter_messages ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT " + p.add(limit) + " OFFSET " + p.add(offset)
	}

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list newsletter messages", err)
	}
	defer rows.Close()

	msgs := []*newsletter.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan newsletter message", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list newsletter messages", err)
	}
	return msgs, total, nil
}

// BeginSending claims a draft or failed message for delivery
func (r *NewsletterRepository) BeginSending(ctx context.Context, m *newsletter.Message) (bool, error) {
	updatedAt := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_messages
		SET status = $1, recipient_count = $2, sent_count = 0, failed_count = 0, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`, string(newsletter.MessageSending), m.RecipientCount, updatedAt.Unix(), m.ID,
		string(newsletter.MessageDraft), string(newsletter.MessageFailed))
	if err != nil {
		return false, errors.DatabaseError("Failed to start newsletter delivery", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to read affected rows", err)
	}
	if n == 0 {
		return false, nil
	}
	m.Status = newsletter.MessageSending
	m.SentCount, m.FailedCount = 0, 0
	m.UpdatedAt = updatedAt
	return true, nil
}

// DeliveredSubscribers returns the ids of subscribers already mailed this message
func (r *NewsletterRepository) DeliveredSubscribers(ctx context.Context, messageID int64) (map[int64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subscriber_id FROM newsletter_deliveries WHERE message_id = $1 AND status = $2
	`, messageID, string(newsletter.DeliverySent))
	if err != nil {
		return nil, errors.DatabaseError("Failed to load newsletter deliveries", err)
	}
	defer rows.Close()

	delivered := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan newsletter delivery", err)
		}
		delivered[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to load newsletter deliveries", err)
	}
	return delivered, nil
}

// RecordDelivery stores the latest outcome for one recipient
func (r *NewsletterRepository) RecordDelivery(ctx context.Context, messageID, subscriberID int64, status newsletter.DeliveryStatus) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_deliveries (message_id, subscriber_id, status, attempted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, subscriber_id)
		DO UPDATE SET status = excluded.status, attempted_at = excluded.attempted_at
	`, messageID, subscriberID, string(status), time.Now().Unix())
	if err != nil {
		return errors.DatabaseError("Failed to record newsletter delivery", err)
	}
	return nil
}

func scanSubscriber(sc rowScanner) (*newsletter.Subscriber, error) {
	var s newsletter.Subscriber
	var name sql.NullString
	var status string
	var subscribedAt int64
	var unsubscribedAt sql.NullInt64

	if err := sc.Scan(&s.ID, &s.Email, &name, &status, &s.Source, &s.UnsubscribeToken,
		&subscribedAt, &unsubscribedAt); err != nil {
		return nil, err
	}

	s.Name = stringPtr(name)
	s.Status = newsletter.SubscriberStatus(status)
	s.SubscribedAt = time.Unix(subscribedAt, 0)
	s.UnsubscribedAt = timePtr(unsubscribedAt)
	return &s, nil
}

func scanMessage(sc rowScanner) (*newsletter.Message, error) {
	var m newsletter.Message
	var status string
	var sentAt sql.NullInt64
	var createdAt, updatedAt int64

	if err := sc.Scan(&m.ID, &m.Subject, &m.Body, &status, &m.RecipientCount, &m.SentCount, &m.FailedCount,
		&m.CreatedBy, &sentAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	m.Status = newsletter.MessageStatus(status)
	m.SentAt = timePtr(sentAt)
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)
	return &m, nil
}
