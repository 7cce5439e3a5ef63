package fetch

import (
	"context"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"pagemirror/internal/model"
)

// Client fetches pages and resources over HTTP.
//
// Design decision: We accept an optional external *http.Client (via
// WithHTTPClient) because tests want httptest-backed clients and callers
// may need custom transports, but we construct a sensible default so the
// common path is just NewClient().
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra headers applied to every request (per-host config).
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// maxBodySize caps how many response bytes are read.
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the default HTTP client.
// Ignored when WithHTTPClient supplies an external client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeaders sets extra headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithCookie sets a Cookie header value applied to every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithMaxBodySize caps the number of response body bytes read per request.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// NewClient creates a Client with a 30-second timeout, a 10MB body cap,
// and no extra headers. Options override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxBodySize: 10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET request and returns the capped body bytes plus the
// response for header inspection. Any transport failure or non-2xx status
// is returned as *Error.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, &Error{URL: rawURL, Err: err}
	}

	req.Header.Set("Accept", "*/*")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, nil, &Error{URL: rawURL, Err: err}
	}

	return body, resp, nil
}

// FetchBytes retrieves the resource at rawURL and returns its bytes
// verbatim. Fails with *Error on any transport or HTTP failure.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := c.get(ctx, rawURL)
	return body, err
}

// FetchText retrieves the document at rawURL and returns it decoded to
// UTF-8, using the response Content-Type plus content sniffing to pick the
// source encoding.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := decodeToUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{URL: rawURL, Err: err}
	}
	return text, nil
}

// FetchPage retrieves the page at rawURL and returns it with transport
// metadata, raw bytes, decoded text, and content hash populated.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*model.Page, error) {
	body, resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	text, err := decodeToUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	page := &model.Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Text:        text,
		Raw:         body,
	}
	page.ComputeHash()
	return page, nil
}

// decodeToUTF8 converts body to UTF-8 based on the Content-Type header and
// charset sniffing. If decoding fails but the input is already valid UTF-8,
// the input is used as-is.
func decodeToUTF8(body []byte, contentType string) (string, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if utf8.Valid(body) {
			return string(body), nil
		}
		return "", err
	}
	return string(decoded), nil
}
