package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrURLRequired is reported when a form has no submission URL.
var ErrURLRequired = errors.New("submission: url is required")

// Result is the classified outcome of a post. Success results carry the
// decoded response body; failures carry a message.
type Result struct {
	Success bool
	Data    map[string]any
	Message string
	Status  int
}

// Poster posts form data to a URL. Implementations never return transport
// errors separately: every outcome is folded into the Result.
type Poster interface {
	Post(ctx context.Context, url string, data map[string]any) Result
}

// Client posts multipart submissions over HTTP.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	maxBody    int64
	logger     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHeader adds a header sent with every submission (e.g. an
// anti-forgery token).
func WithHeader(name, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.headers.Add(name, value)
		}
	}
}

// WithMaxResponseBytes caps how much of the response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient returns an *http.Client tuned for form posts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewClient constructs a Client. Without options it uses a 30s timeout.
func NewClient(options ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		httpClient: NewHTTPClient(30 * time.Second),
		headers:    make(http.Header),
		maxBody:    1 << 20,
		logger:     discard,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

var _ Poster = (*Client)(nil)

// Post encodes data as multipart and posts it to url. A response whose JSON
// body carries Success=true is a success; anything else, including transport
// errors, is a failure.
func (c *Client) Post(ctx context.Context, url string, data map[string]any) Result {
	if strings.TrimSpace(url) == "" {
		return Failure(ErrURLRequired.Error(), 0)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, contentType, err := Encode(data)
	if err != nil {
		return Failure(err.Error(), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Failure(fmt.Sprintf("submission: build request: %v", err), 0)
	}
	for name, values := range c.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log := c.logger.WithField("url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("form submission transport failed")
		return Failure(err.Error(), 0)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return Failure(fmt.Sprintf("submission: read response: %v", err), resp.StatusCode)
	}

	result := Classify(resp.StatusCode, raw)
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"success": result.Success,
	}).Debug("form submission completed")
	return result
}

// Classify interprets a response. Only a 2xx status with a JSON object whose
// Success member is exactly true counts as success.
func Classify(status int, raw []byte) Result {
	var body map[string]any
	decodeErr := json.Unmarshal(raw, &body)

	if status >= 200 && status < 300 && decodeErr == nil {
		if ok, _ := body["Success"].(bool); ok {
			return Result{Success: true, Data: body, Status: status}
		}
	}

	if message := bodyMessage(body); message != "" {
		return Failure(message, status)
	}
	if status < 200 || status >= 300 {
		return Failure(fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status)), status)
	}
	if decodeErr != nil {
		return Failure("invalid response body", status)
	}
	return Failure("submission was not accepted", status)
}

// Failure builds a failed Result.
func Failure(message string, status int) Result {
	return Result{Success: false, Message: message, Status: status}
}

func bodyMessage(body map[string]any) string {
	for _, key := range []string{"Message", "message"} {
		if msg, ok := body[key].(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}
