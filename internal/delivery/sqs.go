package delivery

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/orijen-udf/lifecycle-agent/internal/models"
)

// Sender delivers one lifecycle message. The engine holds exactly one Sender
// for the whole run.
type Sender interface {
	Send(ctx context.Context, msg models.OutboundMessage) error
}

// queueAPI is the slice of the SQS API the sender needs.
type queueAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSender sends messages to one queue with a client bound once to the
// resolved region and credentials.
type SQSSender struct {
	api      queueAPI
	queueURL string
}

func NewSQSSender(target models.DeliveryTarget, creds models.CredentialRecord) *SQSSender {
	cfg := aws.Config{
		Region:      target.Region,
		Credentials: credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
	}
	return &SQSSender{
		api:      sqs.NewFromConfig(cfg),
		queueURL: target.QueueURL,
	}
}

// NewSQSSenderWithAPI is the test seam.
func NewSQSSenderWithAPI(api queueAPI, queueURL string) *SQSSender {
	return &SQSSender{api: api, queueURL: queueURL}
}

func (s *SQSSender) Send(ctx context.Context, msg models.OutboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}

var queueRegionPattern = regexp.MustCompile(`sqs\.([\w-]+)\.amazonaws\.com`)

// QueueRegionFromURL extracts the region embedded in an SQS queue URL. The
// SQS client needs an explicit region even though the URL carries one.
func QueueRegionFromURL(url string) (string, bool) {
	match := queueRegionPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
