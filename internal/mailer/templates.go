package mailer

import (
	"fmt"
	"html"
	"time"
)

// PasswordReset builds the password reset email
func PasswordReset(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your Spartano Furioso password",
		HTML: fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(name), html.EscapeString(link)),
	}
}

// OrderConfirmation builds the receipt sent when an order is paid
func OrderConfirmation(to, product string, orderID, amountCents int64, currency string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order #%d confirmed", orderID),
		HTML: fmt.Sprintf(`<p>Thank you for your purchase.</p>
<p>Order <strong>#%d</strong>: %s, %s %s.</p>
<p>Your access is active now.</p>`, orderID, html.EscapeString(product), FormatAmount(amountCents), html.EscapeString(currency)),
	}
}

// TrialReminder builds the "trial ends soon" email
func TrialReminder(to, product string, expiresAt time.Time, days int) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s trial ends in %d day(s)", product, days),
		HTML: fmt.Sprintf(`<p>Your free trial of <strong>%s</strong> ends on %s.</p>
<p>Purchase before then to keep your access.</p>`, html.EscapeString(product), expiresAt.UTC().Format("2 January 2006")),
	}
}

// WithUnsubscribe appends an unsubscribe footer to newsletter HTML
func WithUnsubscribe(body, link string) string {
	return body + fmt.Sprintf(`<hr><p style="font-size:12px;color:#888">You receive this email because you subscribed to our newsletter. <a href="%s">Unsubscribe</a>.</p>`,
		html.EscapeString(link))
}

// FormatAmount renders minor units as a decimal amount
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
