package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/spartanofurioso/platform/internal/config"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestStripe_ParseWebhook(t *testing.T) {
	s := NewStripe(config.PaymentsConfig{StripeWebhookSecret: testSecret})

	t.Run("checkout completed and paid", func(t *testing.T) {
		header, body := signed(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
			"data":{"object":{"id":"cs_test_1","object":"checkout.session","client_reference_id":"42","payment_status":"paid"}}}`)

		ev, err := s.ParseWebhook(body, header)
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutCompleted, ev.Kind)
		assert.Equal(t, int64(42), ev.OrderID)
		assert.Equal(t, "cs_test_1", ev.Reference)
		assert.True(t, ev.Paid)
	})

	t.Run("checkout completed but unpaid", func(t *testing.T) {
		header, body := signed(t, `{"id":"evt_2","object":"event","type":"checkout.session.completed",
			"data":{"object":{"id":"cs_test_2","client_reference_id":"7","payment_status":"unpaid"}}}`)

		ev, err := s.ParseWebhook(body, header)
		require.NoError(t, err)
		assert.False(t, ev.Paid)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		header, body := signed(t, `{"id":"evt_3","object":"event","type":"charge.refunded","data":{"object":{}}}`)

		ev, err := s.ParseWebhook(body, header)
		require.NoError(t, err)
		assert.Equal(t, EventIgnored, ev.Kind)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, body := signed(t, `{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

		_, err := s.ParseWebhook(body, "t=1,v1=deadbeef")
		assert.True(t, errors.Is(err, ErrInvalidSignature))
	})
}

func TestStripe_NotConfigured(t *testing.T) {
	s := NewStripe(config.PaymentsConfig{})

	_, err := s.CreateCheckout(context.Background(), CheckoutRequest{OrderID: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.ParseWebhook([]byte("{}"), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestManual(t *testing.T) {
	m := NewManual("crypto")
	assert.Equal(t, "crypto", m.Name())

	co, err := m.CreateCheckout(context.Background(), CheckoutRequest{OrderID: 1})
	require.NoError(t, err)
	assert.Nil(t, co)
}

func TestExpandOrderURL(t *testing.T) {
	assert.Equal(t, "https://shop/payment-success?order=9",
		expandOrderURL("https://shop/payment-success?order={ORDER_ID}", "9"))
}
