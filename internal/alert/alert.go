// Package alert sends operator notifications over SES. Its only caller
// today is the outbox sweeper, which escalates completion events stuck
// past the dead-letter threshold.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier emails operators about outbound messages that keep failing.
// It satisfies outbox.Notifier.
type Notifier struct {
	client sesAPI
	from   string
	to     []string
}

// NewNotifier creates an SES-backed operator notifier.
func NewNotifier(client *sesv2.Client, from string, to []string) *Notifier {
	return &Notifier{client: client, from: from, to: to}
}

// NotifyStuckMessage alerts operators that a completion event has crossed
// the retry threshold. Recipient PII never appears in the alert body; the
// tracking link id is enough to find the row.
func (n *Notifier) NotifyStuckMessage(ctx context.Context, msg domain.OutboundMessage) error {
	subject := fmt.Sprintf("[training-delivery] completion event stuck after %d attempts", msg.Attempts)
	body := fmt.Sprintf(
		"A completion event has failed delivery %d times and will keep retrying.\n\n"+
			"  message id:       %s\n"+
			"  tracking link id: %s\n"+
			"  content role:     %s\n"+
			"  last error:       %s\n"+
			"  created at:       %s\n",
		msg.Attempts, msg.ID, msg.TrackingLinkID, msg.ContentRole,
		msg.LastError, msg.CreatedAt.Format(time.RFC3339))

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: n.to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send stuck-message alert: %w", err)
	}
	logger.Info("stuck-message alert sent", "message_id", msg.ID, "attempts", msg.Attempts)
	return nil
}
