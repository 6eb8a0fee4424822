package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluesky-social/fedimod/util"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

type Client struct {
	// Client is an HTTP client to use. If not set, defaults to util.RobustHTTPClient().
	Client *http.Client
	// Base URL of the server, eg "https://mastodon.example"
	Host        string
	AccessToken string
	UserAgent   *string
	Headers     map[string]string
	// Optional client-side limiter, waited on before every request
	Limiter *rate.Limiter
}

func (c *Client) getClient() *http.Client {
	if c.Client == nil {
		return util.RobustHTTPClient(util.HTTPClientOptions{RetryMax: 1})
	}
	return c.Client
}

// Error body returned by the Mastodon API on non-2xx responses
type APIError struct {
	ErrStr      string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (ae *APIError) Error() string {
	if ae.Description != "" {
		return fmt.Sprintf("%s: %s", ae.ErrStr, ae.Description)
	}
	return ae.ErrStr
}

type Error struct {
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("API ERROR %d", e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests && e.Ratelimit != nil {
		return fmt.Sprintf("API ERROR %d: %s (throttled until %s)", e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("API ERROR %d: %s", e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	if e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

func (e *Error) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func errorFromHTTPResponse(resp *http.Response, err error) error {
	r := &Error{
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if resp.Header.Get("X-RateLimit-Limit") != "" {
		r.Ratelimit = &RatelimitInfo{}
		// Mastodon sends an ISO 8601 timestamp for the reset time
		if t, err := time.Parse(time.RFC3339Nano, resp.Header.Get("X-RateLimit-Reset")); err == nil {
			r.Ratelimit.Reset = t
		}
		if n, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Limit"), 10, 64); err == nil {
			r.Ratelimit.Limit = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Remaining"), 10, 64); err == nil {
			r.Ratelimit.Remaining = int(n)
		}
	}
	return r
}

// makeParams converts a map of string keys and any values into a URL-encoded string.
// If a value is a slice of strings, it is encoded as repeated "key[]" entries,
// which is how Rails (and so Mastodon) expects array parameters.
func makeParams(p map[string]any) url.Values {
	params := url.Values{}
	for k, v := range p {
		if s, ok := v.([]string); ok {
			for _, v := range s {
				params.Add(k+"[]", v)
			}
		} else {
			params.Add(k, fmt.Sprint(v))
		}
	}
	return params
}

// Do performs a single API call. GET requests send params in the query
// string; other methods send them as a form body. The response body is
// JSON-decoded into out, if out is non-nil.
func (c *Client) Do(ctx context.Context, method string, path string, params map[string]any, out any) error {
	uri := strings.TrimSuffix(c.Host, "/") + path

	var body io.Reader
	if len(params) > 0 {
		encoded := makeParams(params).Encode()
		if method == http.MethodGet {
			uri += "?" + encoded
		} else {
			body = strings.NewReader(encoded)
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != nil {
		req.Header.Set("User-Agent", *c.UserAgent)
	} else {
		req.Header.Set("User-Agent", "fedimod/"+versioninfo.Short())
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.getClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae APIError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if err := json.Unmarshal(raw, &ae); err != nil || ae.ErrStr == "" {
			return errorFromHTTPResponse(resp, fmt.Errorf("unexpected response: %q", string(bytes.TrimSpace(raw))))
		}
		return errorFromHTTPResponse(resp, &ae)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding API response: %w", err)
		}
	}
	return nil
}
