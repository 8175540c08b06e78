package notify

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"whistleinn/internal/app/policies"
)

// SMSNotifier sends guest text messages through Twilio.
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewSMSNotifier(accountSID, authToken, from string) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSNotifier{client: client, from: from}
}

func (n *SMSNotifier) Send(ctx context.Context, notification policies.Notification) error {
	if notification.Phone == "" {
		return nil
	}
	msg, err := render(notification)
	if err != nil {
		return err
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(notification.Phone)
	params.SetFrom(n.from)
	params.SetBody(msg.SMS)
	_, err = n.client.Api.CreateMessage(params)
	return err
}

var _ policies.Notifier = (*SMSNotifier)(nil)
