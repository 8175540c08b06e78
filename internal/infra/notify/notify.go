package notify

import (
	"context"
	"errors"
	"log/slog"

	"whistleinn/internal/app/policies"
)

// LogNotifier records notifications in the log instead of sending them.
// Default for local development.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, notification policies.Notification) error {
	msg, err := render(notification)
	if err != nil {
		return err
	}
	n.Logger.Info("notification (log mode)",
		"template", notification.Template, "to", notification.To, "phone", notification.Phone, "subject", msg.Subject)
	return nil
}

// Fanout delivers one notification through every configured channel. Channel
// failures are joined but do not stop the remaining channels.
type Fanout struct {
	Channels []policies.Notifier
}

func (n Fanout) Send(ctx context.Context, notification policies.Notification) error {
	var errs []error
	for _, ch := range n.Channels {
		if err := ch.Send(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OwnerCopy forwards each guest notification to the innkeeper as well, so
// bookings and cancellations surface without checking the admin panel.
type OwnerCopy struct {
	Next       policies.Notifier
	OwnerEmail string
	OwnerPhone string
}

func (n OwnerCopy) Send(ctx context.Context, notification policies.Notification) error {
	err := n.Next.Send(ctx, notification)
	if n.OwnerEmail == "" && n.OwnerPhone == "" {
		return err
	}
	copyTo := notification
	copyTo.To = n.OwnerEmail
	copyTo.Phone = n.OwnerPhone
	return errors.Join(err, n.Next.Send(ctx, copyTo))
}

// Async wraps a notifier so sends never block the request path. Errors are
// logged; delivery is best-effort at-most-once by contract.
type Async struct {
	Next   policies.Notifier
	Logger *slog.Logger
}

func (n Async) Send(ctx context.Context, notification policies.Notification) error {
	go func() {
		// Detach from the request context so an HTTP response does not
		// cancel the send mid-flight.
		if err := n.Next.Send(context.WithoutCancel(ctx), notification); err != nil && n.Logger != nil {
			n.Logger.Error("async notification failed", "template", notification.Template, "to", notification.To, "error", err)
		}
	}()
	return nil
}

var (
	_ policies.Notifier = LogNotifier{}
	_ policies.Notifier = Fanout{}
	_ policies.Notifier = Async{}
)
