package aws

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// SES
// ==========================

func TestSESClient_SendText(t *testing.T) {
	var captured *ses.SendEmailInput
	client := NewSESClientWithAPI(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	}, "noreply@example.com")

	id, err := client.SendText(context.Background(), []string{"rrhh@example.com"}, "New application", "body")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.NotNil(t, captured)
	assert.Equal(t, "noreply@example.com", aws.ToString(captured.Source))
	assert.Equal(t, []string{"rrhh@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "New application", aws.ToString(captured.Message.Subject.Data))
	assert.Nil(t, captured.Message.Body.Html)
}

func TestSESClient_SendTextError(t *testing.T) {
	client := NewSESClientWithAPI(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}, "noreply@example.com")

	_, err := client.SendText(context.Background(), []string{"x@example.com"}, "s", "b")
	assert.ErrorContains(t, err, "throttled")
}

// ==========================
// SNS
// ==========================

func TestSNSClient_PublishAlert(t *testing.T) {
	var captured *sns.PublishInput
	client := NewSNSClientWithAPI(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("alert-1")}, nil
		},
	}, "arn:aws:sns:us-east-1:123456789012:intake-alerts")

	id, err := client.PublishAlert(context.Background(), strings.Repeat("s", 150), "cms down")
	require.NoError(t, err)
	assert.Equal(t, "alert-1", id)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:intake-alerts", aws.ToString(captured.TopicArn))
	assert.Len(t, aws.ToString(captured.Subject), 100)
	assert.Equal(t, "cms down", aws.ToString(captured.Message))
}
