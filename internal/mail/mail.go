// Package mail delivers password reset tokens to users.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailjet/mailjet-apiv3-go/v4"
)

// ResetMailer sends a password reset token to an email address.
type ResetMailer interface {
	SendResetToken(ctx context.Context, email, token string) error
}

// Sender identifies the From address of outgoing mail.
type Sender struct {
	Email string
	Name  string
}

// Mailjet sends mail through the Mailjet v3.1 send API.
type Mailjet struct {
	client *mailjet.Client
	from   Sender
}

// NewMailjet creates a Mailjet mailer.
func NewMailjet(apiKey, apiSecret string, from Sender) *Mailjet {
	return &Mailjet{
		client: mailjet.NewMailjetClient(apiKey, apiSecret),
		from:   from,
	}
}

func (m *Mailjet) SendResetToken(ctx context.Context, email, token string) error {
	messages := resetMessage(m.from, email, token)
	if _, err := m.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("send reset email via mailjet: %w", err)
	}
	slog.InfoContext(ctx, "reset email sent")
	return nil
}

func resetMessage(from Sender, email, token string) mailjet.MessagesV31 {
	body := fmt.Sprintf("You requested a password reset. Use the token below within 30 minutes to choose a new password:\n\n%s\n\n"+
		"If you did not request this, you can ignore this email.", token)

	return mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From: &mailjet.RecipientV31{
				Email: from.Email,
				Name:  from.Name,
			},
			To: &mailjet.RecipientsV31{
				{Email: email},
			},
			Subject:  "Password Reset Request",
			TextPart: body,
		},
	}}
}

// Discard drops reset tokens. Used when no mail provider is configured.
type Discard struct{}

func (Discard) SendResetToken(ctx context.Context, _, _ string) error {
	slog.DebugContext(ctx, "no mail provider configured, reset token not emailed")
	return nil
}
