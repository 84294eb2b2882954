package reviews

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

	"github.com/google/uuid"

	"github.com/five82/reviewdeck/internal/logger"
)

// API is the backend surface the synchronizer depends on. It is implemented
// by *Client and can be replaced in tests.
type API interface {
	ListWikis(ctx context.Context) ([]Wiki, error)
	FetchPending(ctx context.Context, wiki WikiID) ([]Page, error)
	FetchRevisions(ctx context.Context, wiki WikiID, pageID int64) ([]Revision, error)
	Refresh(ctx context.Context, wiki WikiID) error
	ClearCache(ctx context.Context, wiki WikiID) error
	UpdateConfiguration(ctx context.Context, wiki WikiID, cfg Configuration) (Configuration, error)
	Autoreview(ctx context.Context, wiki WikiID, pageID int64) (AutoreviewResponse, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrorSlot receives the operator-facing error of the latest request.
type ErrorSlot interface {
	ClearError()
	SetError(message string)
}

// Client talks to the pending-changes HTTP API. Every request clears the
// error slot when it starts and fills it when it fails.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	slot      ErrorSlot
	log       logger.Logger
}

const (
	defaultAPIBase        = "127.0.0.1:8000"
	defaultUserAgent      = "reviewdeck/0.1"
	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 64 * 1024
)

// Option customizes a Client.
type Option func(*Client)

// WithErrorSlot routes request failures into slot.
func WithErrorSlot(slot ErrorSlot) Option {
	return func(c *Client) { c.slot = slot }
}

// WithTimeout sets the per-request timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a Client for the given API base (host:port or URL).
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultRequestTimeout},
		userAgent: defaultUserAgent,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListWikis retrieves the wikis known to the backend.
func (c *Client) ListWikis(ctx context.Context) ([]Wiki, error) {
	var payload WikiListResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/wikis/", dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Wikis, nil
}

// FetchPending retrieves the pending pages of a wiki.
func (c *Client) FetchPending(ctx context.Context, wiki WikiID) ([]Page, error) {
	var payload PendingResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: wikiPath(wiki, "pending"), dest: &payload}); err != nil {
		return nil, err
	}
	return payload.Pages, nil
}

// FetchRevisions retrieves the revisions of one page. Revision lookups are
// best-effort enrichment, so they leave the error slot alone.
func (c *Client) FetchRevisions(ctx context.Context, wiki WikiID, pageID int64) ([]Revision, error) {
	var payload RevisionsResponse
	path := wikiPath(wiki, "pages", strconv.FormatInt(pageID, 10), "revisions")
	if err := c.do(ctx, request{method: http.MethodGet, path: path, dest: &payload, silent: true}); err != nil {
		return nil, err
	}
	return payload.Revisions, nil
}

// Refresh asks the backend to re-index a wiki's pending pages.
func (c *Client) Refresh(ctx context.Context, wiki WikiID) error {
	return c.do(ctx, request{method: http.MethodPost, path: wikiPath(wiki, "refresh")})
}

// ClearCache asks the backend to purge its cached pending data for a wiki.
func (c *Client) ClearCache(ctx context.Context, wiki WikiID) error {
	return c.do(ctx, request{method: http.MethodPost, path: wikiPath(wiki, "clear")})
}

// UpdateConfiguration replaces a wiki's moderation configuration and returns
// the configuration as stored by the backend.
func (c *Client) UpdateConfiguration(ctx context.Context, wiki WikiID, cfg Configuration) (Configuration, error) {
	body := Configuration{
		BlockingCategories: nonNil(cfg.BlockingCategories),
		AutoApprovedGroups: nonNil(cfg.AutoApprovedGroups),
	}
	var payload Configuration
	if err := c.do(ctx, request{method: http.MethodPut, path: wikiPath(wiki, "configuration"), body: body, dest: &payload}); err != nil {
		return Configuration{}, err
	}
	return payload, nil
}

// Autoreview runs the backend's dry-run autoreview checks for a page.
func (c *Client) Autoreview(ctx context.Context, wiki WikiID, pageID int64) (AutoreviewResponse, error) {
	var payload AutoreviewResponse
	path := wikiPath(wiki, "pages", strconv.FormatInt(pageID, 10), "autoreview")
	if err := c.do(ctx, request{method: http.MethodPost, path: path, dest: &payload}); err != nil {
		return AutoreviewResponse{}, err
	}
	return payload, nil
}

type deferErrorsKey struct{}

// DeferErrors marks ctx so that calls made with it still clear the error slot
// but leave reporting a failure to the caller. Callers that may be superseded
// use it to record the failure only while their result is still current.
func DeferErrors(ctx context.Context) context.Context {
	return context.WithValue(ctx, deferErrorsKey{}, true)
}

func errorsDeferred(ctx context.Context) bool {
	deferred, _ := ctx.Value(deferErrorsKey{}).(bool)
	return deferred
}

type request struct {
	method string
	path   string
	body   any
	dest   any
	silent bool
}

func (c *Client) do(ctx context.Context, r request) (err error) {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if c.slot != nil && !r.silent {
		c.slot.ClearError()
		defer func() {
			if err != nil && !errorsDeferred(ctx) {
				c.slot.SetError(Message(err))
			}
		}()
	}

	requestID := uuid.NewString()
	log := c.log.With(map[string]any{"method": r.method, "path": r.path, "request_id": requestID})
	start := time.Now()
	defer func() {
		if err != nil {
			log.Warn(fmt.Sprintf("request failed after %s: %v", time.Since(start).Round(time.Millisecond), err))
			return
		}
		log.Debug(fmt.Sprintf("request ok in %s", time.Since(start).Round(time.Millisecond)))
	}()

	var payload io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: r.path})
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			Path:    r.path,
			Status:  resp.StatusCode,
			Message: statusMessage(resp.StatusCode, errorField(resp.Body)),
		}
	}
	if r.dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.dest); err != nil {
		return &DecodeError{Path: r.path, Err: err}
	}
	return nil
}

// errorField extracts {"error": "..."} from a failed response body.
func errorField(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func wikiPath(wiki WikiID, parts ...string) string {
	segments := append([]string{"api", "wikis", url.PathEscape(strings.TrimSpace(wiki.String()))}, parts...)
	return "/" + strings.Join(segments, "/") + "/"
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
