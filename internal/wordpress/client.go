// Package wordpress reads pages, ACF fields and media from the WordPress
// REST API and stores them as booklet content files.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	booklet "github.com/alnah/go-wpbooklet"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; wp-booklet fetcher)"

	// wafSignature marks the block page served by the XSERVER firewall.
	wafSignature = "xserver"

	maxBodyBytes = 8 << 20
	bodyHeadSize = 500
)

var (
	// ErrInvalidBaseURL indicates WP_URL is empty or not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid WordPress base URL")

	// ErrInvalidPageID indicates a page id that is not a positive integer.
	ErrInvalidPageID = errors.New("invalid page id")

	// ErrDecode indicates a response body that is not the expected JSON.
	ErrDecode = errors.New("decoding WordPress response")
)

// StatusError is a non-2xx response. Body holds the start of the response,
// which usually names the firewall or plugin that refused the request.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
}

// Forbidden reports a 401 or 403.
func (e *StatusError) Forbidden() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// WAFBlocked reports a 403 issued by the hosting firewall rather than by
// WordPress.
func (e *StatusError) WAFBlocked() bool {
	return e.Status == http.StatusForbidden && strings.Contains(strings.ToLower(e.Body), wafSignature)
}

// Credentials authenticate retries of refused requests.
// A JWT wins over basic credentials.
type Credentials struct {
	JWT      string
	User     string
	Password string
}

// CredentialsFromEnv reads WP_JWT, then WP_BASIC_USER/WP_BASIC_PASS, falling
// back to the application-password pair WP_APP_USER/WP_APP_PASS.
func CredentialsFromEnv(getenv func(string) string) Credentials {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v
			}
		}
		return ""
	}
	return Credentials{
		JWT:      first("WP_JWT"),
		User:     first("WP_BASIC_USER", "WP_APP_USER"),
		Password: first("WP_BASIC_PASS", "WP_APP_PASS"),
	}
}

// Empty reports whether no usable credentials are set.
func (c Credentials) Empty() bool {
	return c.authorization() == ""
}

func (c Credentials) authorization() string {
	switch {
	case c.JWT != "":
		return "Bearer " + c.JWT
	case c.User != "" && c.Password != "":
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Password))
	default:
		return ""
	}
}

// Client talks to one WordPress site.
type Client struct {
	base      *url.URL
	http      *http.Client
	creds     Credentials
	userAgent string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCredentials sets the credentials used when a request is refused.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the site root without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// Page is the subset of a wp/v2 page the booklet needs.
type Page struct {
	ID          int64
	Slug        string
	Title       string // rendered HTML
	Content     string // rendered HTML
	Modified    string
	ModifiedGMT string
	Template    string
	ACF         map[string]any
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type pageJSON struct {
	ID          json.Number     `json:"id"`
	Slug        string          `json:"slug"`
	Title       rendered        `json:"title"`
	Content     rendered        `json:"content"`
	Modified    string          `json:"modified"`
	ModifiedGMT string          `json:"modified_gmt"`
	Template    string          `json:"template"`
	ACF         json.RawMessage `json:"acf"`
}

// Page fetches page id with embedded resources.
func (c *Client) Page(ctx context.Context, id string) (*Page, error) {
	if err := validatePageID(id); err != nil {
		return nil, err
	}

	var raw pageJSON
	route := "/wp/v2/pages/" + id
	if err := c.get(ctx, route, url.Values{"_embed": {""}}, true, &raw); err != nil {
		return nil, err
	}

	pageID, _ := raw.ID.Int64()
	acf, err := decodeACF(raw.ACF)
	if err != nil {
		return nil, err
	}
	return &Page{
		ID:          pageID,
		Slug:        raw.Slug,
		Title:       raw.Title.Rendered,
		Content:     raw.Content.Rendered,
		Modified:    raw.Modified,
		ModifiedGMT: raw.ModifiedGMT,
		Template:    raw.Template,
		ACF:         acf,
	}, nil
}

// ACF fetches the custom fields of page id through the ACF to REST API
// plugin (acf/v3). Used when the page response carries no fields.
func (c *Client) ACF(ctx context.Context, id string) (map[string]any, error) {
	if err := validatePageID(id); err != nil {
		return nil, err
	}

	var raw struct {
		ACF json.RawMessage `json:"acf"`
	}
	if err := c.get(ctx, "/acf/v3/pages/"+id, nil, false, &raw); err != nil {
		return nil, err
	}
	return decodeACF(raw.ACF)
}

type mediaJSON struct {
	ID        json.Number `json:"id"`
	SourceURL string      `json:"source_url"`
	AltText   string      `json:"alt_text"`
	Title     rendered    `json:"title"`
}

// Media fetches attachment id as a resolved image.
func (c *Client) Media(ctx context.Context, id int64) (booklet.Image, error) {
	if id <= 0 {
		return booklet.Image{}, fmt.Errorf("%w: %d", ErrInvalidPageID, id)
	}

	var raw mediaJSON
	if err := c.get(ctx, "/wp/v2/media/"+strconv.FormatInt(id, 10), nil, false, &raw); err != nil {
		return booklet.Image{}, err
	}
	if raw.SourceURL == "" {
		return booklet.Image{}, fmt.Errorf("%w: media %d has no source_url", ErrDecode, id)
	}
	return booklet.Image{
		URL:   raw.SourceURL,
		Alt:   raw.AltText,
		Title: plainText(raw.Title.Rendered),
	}, nil
}

// ResolveMedia implements booklet.MediaResolver.
func (c *Client) ResolveMedia(ctx context.Context, id int64) (booklet.Image, error) {
	return c.Media(ctx, id)
}

// get walks the fallback chain used by the hosting setups we deploy to:
// public pretty route, public query route when the firewall blocks the
// first, then the same two with credentials on 401/403. editContext adds
// context=edit to authenticated requests so drafts are readable.
func (c *Client) get(ctx context.Context, route string, query url.Values, editContext bool, v any) error {
	err := c.getJSON(ctx, c.prettyURL(route, query), false, v)
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}

	if se.WAFBlocked() {
		c.logger.Warn("request blocked by firewall, retrying via query route", zap.String("route", route))
		err = c.getJSON(ctx, c.queryURL(route, query), false, v)
		if !errors.As(err, &se) {
			return err
		}
	}

	if !se.Forbidden() || c.creds.Empty() {
		return err
	}

	authQuery := cloneValues(query)
	if editContext {
		authQuery.Set("context", "edit")
	}
	c.logger.Info("retrying with credentials", zap.String("route", route), zap.Int("status", se.Status))
	err = c.getJSON(ctx, c.prettyURL(route, authQuery), true, v)
	if errors.As(err, &se) && se.WAFBlocked() {
		c.logger.Warn("authenticated request blocked by firewall, retrying via query route", zap.String("route", route))
		err = c.getJSON(ctx, c.queryURL(route, authQuery), true, v)
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, target string, auth bool, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if auth {
		req.Header.Set("Authorization", c.creds.authorization())
	}

	c.logger.Debug("GET", zap.String("url", target), zap.Bool("auth", auth))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		head := string(body)
		if len(head) > bodyHeadSize {
			head = head[:bodyHeadSize]
		}
		// Some firewalls only identify themselves in the Server header.
		if server := resp.Header.Get("Server"); server != "" {
			head = server + " " + head
		}
		return &StatusError{URL: target, Status: resp.StatusCode, Body: head}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, target, err)
	}
	return nil
}

// prettyURL builds <base>/wp-json<route>?query.
func (c *Client) prettyURL(route string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/wp-json" + route
	u.RawQuery = encodeQuery(query)
	return u.String()
}

// queryURL builds <base>/index.php?rest_route=<route>&query, the form that
// works when /wp-json is rewritten away or filtered.
func (c *Client) queryURL(route string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/index.php"
	q := cloneValues(query)
	q.Set("rest_route", route)
	u.RawQuery = encodeQuery(q)
	return u.String()
}

// encodeQuery is url.Values.Encode without "=" after empty flags such as
// _embed.
func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	parts := strings.Split(q.Encode(), "&")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "=")
	}
	return strings.Join(parts, "&")
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// decodeACF accepts the object form. ACF reports pages without fields as
// false or [], both of which yield an empty map.
func decodeACF(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var acf map[string]any
	if err := dec.Decode(&acf); err != nil {
		return nil, fmt.Errorf("%w: acf: %v", ErrDecode, err)
	}
	return acf, nil
}

func validatePageID(id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPageID, id)
	}
	return nil
}
