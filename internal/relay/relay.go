// internal/relay/relay.go
//
// Contact – relay client for the remote submission endpoint.
//
// Context
//   Once the controller has a valid payload, the relay POSTs it as JSON to
//   one fixed HTTPS endpoint.  No auth header is sent and the response body
//   is drained but never parsed.
//
//   By default the relay only fails on transport errors.  A 4xx or 5xx
//   response still counts as delivered, which matches how the form has
//   always behaved.  WithStrictStatus opts in to treating those responses as
//   failures (*StatusError).
//
//   No timeout or retry is applied unless configured.  The request carries
//   the caller's context, so a cancelled context aborts it.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/contact"
)

// Compile-time assertion: *Client satisfies contact.Sender.
var _ contact.Sender = (*Client)(nil)

// StatusError reports an error status from the endpoint in strict mode.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay: endpoint answered %d %s", e.Code, http.StatusText(e.Code))
}

// Client posts submissions to one endpoint.  Safe for concurrent use.
type Client struct {
	url     string
	http    *http.Client
	strict  bool
	timeout time.Duration
	log     *zap.SugaredLogger
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient swaps the pooled client, e.g. for httptest TLS servers.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithStrictStatus makes 4xx and 5xx responses fail the submission.
func WithStrictStatus(strict bool) Option { return func(c *Client) { c.strict = strict } }

// WithTimeout bounds each request.  Zero means wait indefinitely.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithLogger sets the logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

// New returns a Client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		url:  endpoint,
		http: cleanhttp.DefaultPooledClient(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.S()
	}
	return c
}

// Send implements contact.Sender.
func (c *Client) Send(ctx context.Context, p contact.SubmissionPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("relay: encode payload: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay: post %s: %w", c.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body) // keep the connection reusable

	if resp.StatusCode >= http.StatusBadRequest {
		if c.strict {
			return &StatusError{Code: resp.StatusCode}
		}
		c.log.Warnw("relay endpoint returned error status, treating as delivered",
			"status", resp.StatusCode, "url", c.url)
	}
	return nil
}
