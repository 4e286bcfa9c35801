package predict

import (
	"context"
	"errors"
	"io"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for uploads over flaky rural
// links.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var predictErr *PredictError
	if errors.As(err, &predictErr) {
		return predictErr.retryable()
	}
	return false
}

// RetryableClient wraps a Client with exponential backoff retry.
type RetryableClient struct {
	client Client
	config RetryConfig
}

// NewRetryableClient creates a client that retries transient failures.
func NewRetryableClient(client Client, cfg RetryConfig) *RetryableClient {
	return &RetryableClient{
		client: client,
		config: cfg,
	}
}

// Predict implements Client with retry logic. The image must be seekable or
// fully buffered by the caller when retries are enabled; each attempt
// re-reads it from the current position, so a bytes.Reader is reset here.
func (c *RetryableClient) Predict(ctx context.Context, image io.Reader, filename string) (*Result, error) {
	seeker, _ := image.(io.Seeker)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 && seeker != nil {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, lastErr
			}
		}

		result, err := c.client.Predict(ctx, image, filename)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
		if seeker == nil {
			// Cannot rewind the image for another attempt.
			return nil, err
		}

		if attempt < c.config.MaxRetries {
			delay := c.config.BaseDelay * time.Duration(1<<attempt)
			if delay > c.config.MaxDelay {
				delay = c.config.MaxDelay
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, lastErr
}

// Verify RetryableClient implements Client.
var _ Client = (*RetryableClient)(nil)
