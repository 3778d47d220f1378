package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/airbridge/internal/device"
	"github.com/nerrad567/airbridge/internal/infrastructure/config"
	"github.com/nerrad567/airbridge/internal/retry"
)

// devicesPath is the cloud endpoint listing all gateway devices.
const devicesPath = "/v1/gateway-devices"

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client fetches device descriptors from the remote cloud API.
//
// Every fetch runs through the retry backoff loop with selective retry:
// only failures retry.IsRetryable classifies as transient are repeated,
// permanent failures (most 4xx, 500) surface immediately. The final
// error of an exhausted retry is the last attempt's error, unmodified.
//
// The client does not handle authentication flows — it sends the
// configured bearer token as-is. Token acquisition and refresh live
// outside the bridge.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryOpts  retry.Options
	logger     Logger
}

// NewClient creates a cloud client from configuration.
//
// Parameters:
//   - cfg: Cloud connection settings (base URL, token, request timeout)
//   - retryCfg: Backoff settings applied to every fetch
//
// Returns:
//   - *Client: Client ready for use
func NewClient(cfg config.CloudConfig, retryCfg config.RetryConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.GetRequestTimeout(),
		},
		retryOpts: retry.Options{
			MaxRetries:   retryCfg.MaxRetries,
			InitialDelay: retryCfg.GetRetryInitialDelay(),
			MaxDelay:     retryCfg.GetRetryMaxDelay(),
			RetryIf:      retry.IsRetryable,
		},
		logger: noopLogger{},
	}

	c.retryOpts.Observer = retry.ObserverFunc(func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("remote fetch failed, retrying",
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
	})

	return c
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// FetchDevices retrieves all device descriptors, protected by the
// backoff policy. Each returned descriptor has passed trust-boundary
// validation.
func (c *Client) FetchDevices(ctx context.Context) ([]*device.Descriptor, error) {
	return retry.Do(ctx, c.fetchDevices, c.retryOpts)
}

// FetchDevice retrieves a single device descriptor by id, protected by
// the backoff policy.
func (c *Client) FetchDevice(ctx context.Context, deviceID string) (*device.Descriptor, error) {
	return retry.Do(ctx, func(ctx context.Context) (*device.Descriptor, error) {
		raw, err := c.get(ctx, devicesPath+"/"+deviceID)
		if err != nil {
			return nil, err
		}
		return device.ParseDescriptor(raw)
	}, c.retryOpts)
}

// fetchDevices performs one un-retried fetch of the device list.
func (c *Client) fetchDevices(ctx context.Context) ([]*device.Descriptor, error) {
	raw, err := c.get(ctx, devicesPath)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decoding device list: %w", ErrFetchFailed, err)
	}

	descriptors := make([]*device.Descriptor, 0, len(items))
	for _, item := range items {
		desc, err := device.ParseDescriptor(item)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}

	return descriptors, nil
}

// get performs a single authenticated GET and returns the response body.
// Non-2xx responses become *StatusError so classification sees the code.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Status: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrFetchFailed, err)
	}

	return body, nil
}
