package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"submission-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"broken pipe", true},
		{"rpc error: code = InvalidArgument desc = bad variables", false},
		{"message already exists", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("succeeds after transient failure", func(t *testing.T) {
		calls := 0
		result, err := newTestClient(2).ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			if calls == 1 {
				return nil, stderrors.New("connection refused")
			}
			return "ok", nil
		}, "publish-message")

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 2, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		_, err := newTestClient(3).ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("permission denied")
		}, "publish-message")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, errors.Is(err, errors.ErrCodeUpstreamUnavailable))
		assert.Equal(t, "unauthorized", errors.AsStandardError(err).Metadata["kind"])
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := newTestClient(2).ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("deadline exceeded")
		}, "publish-message")

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, "timeout", errors.AsStandardError(err).Metadata["kind"])
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		calls := 0
		_, err := newTestClient(0).ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("connection refused")
		}, "publish-message")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "unavailable", errors.AsStandardError(err).Metadata["kind"])
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := &Client{config: &ClientConfig{
			RetryConfig: &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour},
		}}
		cancel()

		_, err := client.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
			return nil, stderrors.New("unavailable")
		}, "publish-message")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
