package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const subject = "Your account"

// sesAPI is the subset of the SES v2 client the sink uses. Seam for tests.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSink sends mail through Amazon SES v2.
type SESSink struct {
	client sesAPI
	sender string
}

// NewSESSink returns a sink sending from the given verified sender address.
func NewSESSink(client *sesv2.Client, sender string) *SESSink {
	return &SESSink{client: client, sender: sender}
}

func (s *SESSink) Send(ctx context.Context, emailAddress, htmlContent string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{emailAddress},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(htmlContent)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", emailAddress, err)
	}
	return nil
}

var _ Sink = (*SESSink)(nil)
