package util

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// LeveledSlog adapts a slog.Logger to the retryablehttp.LeveledLogger interface.
type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

// re-writes HTTP client DEBUG to INFO level (this is where retry is logged)
func (l LeveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Info(msg, keysAndValues...)
}

type HTTPClientOptions struct {
	// Number of retries after the first attempt. Zero disables retries.
	RetryMax int
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Generates an HTTP client with decent general-purpose defaults around
// timeouts and retries. The returned client has the stdlib http.Client
// interface, but has Hashicorp retryablehttp logic internally.
//
// Moderation API calls are not all idempotent (a retried report is a second
// report), so this client only retries on connection errors and on the status
// codes in RetryableStatus (respecting 'Retry-After'). Intermediate failures
// are logged at WARN level.
func RobustHTTPClient(opts HTTPClientOptions) *http.Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.CheckRetry = CheckRetry
	// hand back the final response, so callers can decode the API error body and rate-limit headers
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledSlog{opts.Logger.With("component", "http")})
	client := retryClient.StandardClient()
	client.Timeout = opts.Timeout
	return client
}

var RetryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// CheckRetry is a retryablehttp.CheckRetry policy which retries transport
// failures and a narrow set of transient statuses.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return true, nil
		}
		// invalid requests and TLS failures won't get better on retry
		if errors.As(err, &uerr) && uerr.Op == "parse" {
			return false, nil
		}
		return true, nil
	}
	if resp != nil && RetryableStatus[resp.StatusCode] {
		return true, nil
	}
	return false, nil
}
