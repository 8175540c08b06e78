package policies

import "context"

// Notification is a templated message for the guest or the innkeeper.
type Notification struct {
	Template string
	To       string
	Phone    string
	Data     map[string]string
}

// Notifier is the email/SMS collaborator. Delivery is best-effort and
// at-most-once: a failed send is logged by the adapter and never rolls back
// the state transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
