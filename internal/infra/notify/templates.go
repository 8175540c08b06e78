package notify

import (
	"fmt"

	"whistleinn/internal/app/policies"
)

type renderedMessage struct {
	Subject string
	HTML    string
	SMS     string
}

// render expands the known notification templates. An unknown template is an
// error so a typo in a caller surfaces in logs instead of sending nothing
// silently.
func render(n policies.Notification) (renderedMessage, error) {
	switch n.Template {
	case "booking_confirmation":
		return renderedMessage{
			Subject: "Your Whistle Inn booking is confirmed",
			HTML: fmt.Sprintf(
				"<p>Hi %s,</p><p>Your stay from <strong>%s</strong> to <strong>%s</strong> is confirmed. Booking reference: %s.</p><p>We look forward to hosting you!</p>",
				n.Data["guestName"], n.Data["startDate"], n.Data["endDate"], n.Data["bookingId"],
			),
			SMS: fmt.Sprintf("Whistle Inn: booking confirmed for %s - %s (ref %s).",
				n.Data["startDate"], n.Data["endDate"], n.Data["bookingId"]),
		}, nil
	case "booking_cancelled":
		return renderedMessage{
			Subject: "Your Whistle Inn booking was cancelled",
			HTML: fmt.Sprintf(
				"<p>Hi %s,</p><p>Your stay from <strong>%s</strong> to <strong>%s</strong> has been cancelled.</p><p>Reason: %s</p>",
				n.Data["guestName"], n.Data["startDate"], n.Data["endDate"], n.Data["reason"],
			),
			SMS: fmt.Sprintf("Whistle Inn: booking for %s - %s was cancelled.",
				n.Data["startDate"], n.Data["endDate"]),
		}, nil
	default:
		return renderedMessage{}, fmt.Errorf("notify: unknown template %q", n.Template)
	}
}
