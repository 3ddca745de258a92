package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/payments"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	Users       map[int64]*user.User
	EmailIndex  map[string]*user.User
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		EmailIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.EmailIndex[u.Email]; ok {
		return errors.Conflict("User with this email already exists")
	}
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (*user.User, error) {
	for _, u := range m.Users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return errors.NotFound("User")
	}
	// callers may have mutated the stored pointer already
	for email, existing := range m.EmailIndex {
		if existing.ID == u.ID {
			delete(m.EmailIndex, email)
		}
	}
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	delete(m.EmailIndex, u.Email)
	delete(m.Users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, filter user.Filter) ([]*user.User, int64, error) {
	var result []*user.User
	for _, u := range m.Users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !strings.Contains(u.Email, strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, u)
	}
	return result, int64(len(result)), nil
}

func (m *MockUserRepository) Count(ctx context.Context, role string) (int64, error) {
	var n int64
	for _, u := range m.Users {
		if role == "" || u.Role == role {
			n++
		}
	}
	return n, nil
}

// MockMailer records sent messages
type MockMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	// FailFor makes Send fail for these recipients
	FailFor map[string]bool
}

func NewMockMailer() *MockMailer {
	return &MockMailer{FailFor: make(map[string]bool)}
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[msg.To] {
		return errors.ServiceUnavailable("smtp unavailable")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of the sent messages
func (m *MockMailer) Messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.Sent...)
}

// PublishedEvent is an event captured by MockPublisher
type PublishedEvent struct {
	Type string
	Data interface{}
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, PublishedEvent{Type: eventType, Data: data})
	return nil
}

func (m *MockPublisher) Close() {}

// Types returns the published event types in order
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Type)
	}
	return types
}

// MockGateway is a payment gateway returning a fixed hosted checkout
type MockGateway struct {
	MethodName string
	Err        error
	Requests   []payments.CheckoutRequest
}

func (m *MockGateway) Name() string { return m.MethodName }

func (m *MockGateway) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &payments.Checkout{
		SessionID: "cs_test_123",
		URL:       "https://checkout.example.com/cs_test_123",
	}, nil
}

// MockWebhookVerifier returns a preset event for the "valid" signature
type MockWebhookVerifier struct {
	Event *payments.WebhookEvent
}

func (m *MockWebhookVerifier) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payments.ErrInvalidSignature
	}
	return m.Event, nil
}

// MockDispatcher records dispatched newsletter messages
type MockDispatcher struct {
	mu  sync.Mutex
	IDs []int64
	Err error
}

func (m *MockDispatcher) Dispatch(ctx context.Context, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.IDs = append(m.IDs, messageID)
	return nil
}
