package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/testutil"
)

func newNewsletterService(env *testEnv, d newsletter.Dispatcher) *NewsletterService {
	return NewNewsletterService(env.newsletter, env.mailer, d, "https://spartanofurioso.com/", env.log).(*NewsletterService)
}

func TestNewsletterService_Subscribe(t *testing.T) {
	env := newTestEnv(t)
	svc := newNewsletterService(env, &testutil.MockDispatcher{})
	ctx := context.Background()

	name := "Leonidas"
	sub, err := svc.Subscribe(ctx, "  Leo@Example.com ", &name, "")
	require.NoError(t, err)
	assert.Equal(t, "leo@example.com", sub.Email)
	assert.Equal(t, newsletter.DefaultSource, sub.Source)
	assert.NotEmpty(t, sub.UnsubscribeToken)

	again, err := svc.Subscribe(ctx, "leo@example.com", nil, "footer")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	require.NoError(t, svc.Unsubscribe(ctx, sub.UnsubscribeToken))
	require.NoError(t, svc.Unsubscribe(ctx, sub.UnsubscribeToken))

	got, err := env.newsletter.GetSubscriberByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.SubscriberUnsubscribed, got.Status)
	assert.NotNil(t, got.UnsubscribedAt)

	back, err := svc.Subscribe(ctx, "leo@example.com", nil, "")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, back.ID)
	assert.Equal(t, newsletter.SubscriberSubscribed, back.Status)
	assert.Nil(t, back.UnsubscribedAt)

	err = svc.Unsubscribe(ctx, "nope")
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.Subscribe(ctx, "   ", nil, "")
	assert.Error(t, err)
}

func TestNewsletterService_MessageLifecycle(t *testing.T) {
	env := newTestEnv(t)
	dispatcher := &testutil.MockDispatcher{}
	svc := newNewsletterService(env, dispatcher)
	ctx := context.Background()

	_, err := svc.CreateMessage(ctx, 1, "", "body")
	require.Error(t, err)

	msg, err := svc.CreateMessage(ctx, 1, "Weekly setups", "<p>Gold is moving</p>")
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageDraft, msg.Status)

	subject := "Weekly setups #1"
	msg, err = svc.UpdateMessage(ctx, msg.ID, &subject, nil)
	require.NoError(t, err)
	assert.Equal(t, subject, msg.Subject)

	_, err = svc.Send(ctx, msg.ID)
	require.Error(t, err, "no subscribers yet")

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Subscribe(ctx, email, nil, "")
		require.NoError(t, err)
	}

	sending, err := svc.Send(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSending, sending.Status)
	assert.Equal(t, 2, sending.RecipientCount)
	assert.Equal(t, []int64{msg.ID}, dispatcher.IDs)

	_, err = svc.UpdateMessage(ctx, msg.ID, &subject, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)

	_, err = svc.Send(ctx, msg.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)

	err = svc.DeleteMessage(ctx, msg.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)

	sent, err := svc.Deliver(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, sent.Status)
	assert.Equal(t, 2, sent.SentCount)
	assert.Zero(t, sent.FailedCount)
	assert.NotNil(t, sent.SentAt)

	mails := env.mailer.Messages()
	require.Len(t, mails, 2)
	for _, m := range mails {
		assert.Equal(t, subject, m.Subject)
		assert.Contains(t, m.HTML, "https://spartanofurioso.com/newsletter/unsubscribe?token=")
	}

	// redelivery of a finished message sends nothing
	_, err = svc.Deliver(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, env.mailer.Messages(), 2)
}

func TestNewsletterService_DeliverAllFailed(t *testing.T) {
	env := newTestEnv(t)
	svc := newNewsletterService(env, &testutil.MockDispatcher{})
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "bounce@example.com", nil, "")
	require.NoError(t, err)
	env.mailer.FailFor["bounce@example.com"] = true

	msg, err := svc.CreateMessage(ctx, 1, "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)

	failed, err := svc.Deliver(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageFailed, failed.Status)
	assert.Equal(t, 1, failed.FailedCount)

	// failed messages may be retried
	delete(env.mailer.FailFor, "bounce@example.com")
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)
	sent, err := svc.Deliver(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, sent.Status)
}

func TestNewsletterService_DispatchFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := newNewsletterService(env, &testutil.MockDispatcher{Err: errors.ServiceUnavailable("broker down")})
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@example.com", nil, "")
	require.NoError(t, err)
	msg, err := svc.CreateMessage(ctx, 1, "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	_, err = svc.Send(ctx, msg.ID)
	require.Error(t, err)

	got, err := svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageFailed, got.Status)
}

func TestInProcessDispatcher(t *testing.T) {
	env := newTestEnv(t)
	svc := newNewsletterService(env, nil)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@example.com", nil, "")
	require.NoError(t, err)
	msg, err := svc.CreateMessage(ctx, 1, "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)

	svc.dispatcher.(*InProcessDispatcher).Wait()

	got, err := svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, got.Status)
}

func TestQueueDispatcherAndHandler(t *testing.T) {
	env := newTestEnv(t)
	svc := newNewsletterService(env, NewQueueDispatcher(env.publisher))
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@example.com", nil, "")
	require.NoError(t, err)
	msg, err := svc.CreateMessage(ctx, 1, "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)

	require.Len(t, env.publisher.Events, 1)
	published := env.publisher.Events[0]
	assert.Equal(t, events.NewsletterDeliver, published.Type)

	body, err := json.Marshal(events.NewEnvelope(published.Type, published.Data))
	require.NoError(t, err)

	handler := NewsletterDeliveryHandler(svc)
	require.NoError(t, handler(ctx, body))

	got, err := svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, got.Status)

	err = handler(ctx, []byte(`{"data":{}}`))
	assert.Error(t, err)
	err = handler(ctx, []byte(strings.Repeat("{", 3)))
	assert.Error(t, err)
}

// cancellingMailer cancels the delivery run after each message it accepts
type cancellingMailer struct {
	*testutil.MockMailer
	cancel context.CancelFunc
}

func (m *cancellingMailer) Send(ctx context.Context, msg mailer.Message) error {
	err := m.MockMailer.Send(ctx, msg)
	m.cancel()
	return err
}

func TestNewsletterService_InterruptedDeliveryResumes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mail := &cancellingMailer{MockMailer: testutil.NewMockMailer(), cancel: cancel}
	svc := NewNewsletterService(env.newsletter, mail, &testutil.MockDispatcher{}, "https://spartanofurioso.com", env.log).(*NewsletterService)

	addresses := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range addresses {
		_, err := svc.Subscribe(ctx, email, nil, "")
		require.NoError(t, err)
	}
	msg, err := svc.CreateMessage(ctx, 1, "Weekly setups", "<p>Gold</p>")
	require.NoError(t, err)
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)

	_, err = svc.Deliver(runCtx, msg.ID)
	require.ErrorIs(t, err, context.Canceled)

	got, err := svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageFailed, got.Status)
	assert.Equal(t, 1, got.SentCount)

	// the admin resends and only the remaining subscribers are mailed
	mail.cancel = func() {}
	_, err = svc.Send(ctx, msg.ID)
	require.NoError(t, err)
	sent, err := svc.Deliver(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, sent.Status)
	assert.Equal(t, 3, sent.SentCount)

	perAddress := map[string]int{}
	for _, m := range mail.Messages() {
		perAddress[m.To]++
	}
	for _, email := range addresses {
		assert.Equal(t, 1, perAddress[email], email)
	}
}

func TestNewsletterService_ConcurrentSend(t *testing.T) {
	env := newTestEnv(t)
	dispatcher := &testutil.MockDispatcher{}
	svc := newNewsletterService(env, dispatcher)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@example.com", nil, "")
	require.NoError(t, err)
	msg, err := svc.CreateMessage(ctx, 1, "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Send(ctx, msg.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, []int64{msg.ID}, dispatcher.IDs)
}
