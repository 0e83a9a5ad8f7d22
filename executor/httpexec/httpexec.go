// Package httpexec runs GROQ queries against a Sanity-compatible HTTP query
// API.
package httpexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/reoring/groqb"
)

// DefaultAPIVersion is used when Config.APIVersion is empty.
const DefaultAPIVersion = "2021-10-21"

// Config locates a dataset.
type Config struct {
	ProjectID   string
	Dataset     string
	APIVersion  string // Date version without the "v", e.g. 2021-10-21.
	Token       string // Optional bearer token.
	UseCDN      bool   // Query the apicdn host.
	BaseURL     string // Overrides the host derived from ProjectID, e.g. for tests.
	Perspective string // Optional: "published", "drafts", "raw".
}

func (c Config) validate() error {
	if c.ProjectID == "" && c.BaseURL == "" {
		return errors.New("httpexec: project id or base url is required")
	}
	if c.Dataset == "" {
		return errors.New("httpexec: dataset is required")
	}
	return nil
}

func (c Config) endpoint() string {
	base := c.BaseURL
	if base == "" {
		host := "api"
		if c.UseCDN && c.Token == "" {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", c.ProjectID, host)
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return strings.TrimRight(base, "/") + "/v" + strings.TrimPrefix(version, "v") + "/data/query/" + url.PathEscape(c.Dataset)
}

// Client is a groqb executor over HTTP. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures New.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit bounds outgoing requests; callers wait for a token.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates cfg and returns a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}, logger: slog.Default()}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c, nil
}

// APIError is a non-2xx answer from the query API.
type APIError struct {
	StatusCode  int
	Type        string
	Description string
	RequestTag  string
}

func (e *APIError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Type != "" {
		return fmt.Sprintf("httpexec: %d %s: %s", e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("httpexec: %d: %s", e.StatusCode, msg)
}

type queryResponse struct {
	Result any   `json:"result"`
	MS     int64 `json:"ms"`
}

type errorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"error"`
}

// Executor adapts the client to groqb.MakeRunner.
func (c *Client) Executor() groqb.Executor { return c.Execute }

// Execute sends query with opts.Parameters encoded as `$name=<json>` query
// parameters. opts.Extra["perspective"] overrides Config.Perspective.
func (c *Client) Execute(ctx context.Context, query string, opts groqb.RunOptions) (any, error) {
	u, err := c.buildURL(query, opts)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	tag := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Tag", tag)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "httpexec: response", "tag", tag, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestTag: tag}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Type = er.Error.Type
			apiErr.Description = er.Error.Description
		}
		return nil, apiErr
	}
	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("httpexec: decode response: %w", err)
	}
	return qr.Result, nil
}

func (c *Client) buildURL(query string, opts groqb.RunOptions) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	for name, v := range opts.Parameters {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("httpexec: encode parameter %q: %w", name, err)
		}
		q.Set("$"+name, string(b))
	}
	perspective := c.cfg.Perspective
	if p, ok := opts.Extra["perspective"].(string); ok {
		perspective = p
	}
	if perspective != "" {
		q.Set("perspective", perspective)
	}
	return c.cfg.endpoint() + "?" + q.Encode(), nil
}
