package notify

import (
	"context"

	"github.com/resend/resend-go/v2"

	"whistleinn/internal/app/policies"
)

// EmailNotifier sends guest emails through Resend.
type EmailNotifier struct {
	client *resend.Client
	from   string
}

func NewEmailNotifier(apiKey, from string) *EmailNotifier {
	return &EmailNotifier{client: resend.NewClient(apiKey), from: from}
}

func (n *EmailNotifier) Send(ctx context.Context, notification policies.Notification) error {
	if notification.To == "" {
		return nil
	}
	msg, err := render(notification)
	if err != nil {
		return err
	}
	_, err = n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{notification.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	return err
}

var _ policies.Notifier = (*EmailNotifier)(nil)
