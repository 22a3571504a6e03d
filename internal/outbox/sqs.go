package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

var errInvalidPayload = errors.New("outbox payload is not valid JSON")

// SQSTransport delivers completion events to the downstream SQS topic.
type SQSTransport struct {
	client   *sqs.Client
	queueURL string
}

func NewSQSTransport(client *sqs.Client, queueURL string) *SQSTransport {
	return &SQSTransport{client: client, queueURL: queueURL}
}

// Send publishes one message body to the queue.
func (t *SQSTransport) Send(ctx context.Context, payload []byte) error {
	if !json.Valid(payload) {
		return errInvalidPayload
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := t.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(t.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	return err
}
