package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/paulstuart/gollm/unityrel/pkg/output"
)

// DefaultTimeout bounds a single GraphQL request.
const DefaultTimeout = 30 * time.Second

var errNoResponse = errors.New("no response received")

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the GraphQL endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithLimit sets the page size requested per version prefix.
func WithLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport replaces the HTTP transport used by the collector.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// Client queries the release GraphQL service with a colly collector.
type Client struct {
	endpoint  string
	limit     int
	timeout   time.Duration
	transport http.RoundTripper

	collector *colly.Collector
}

// Payload is a successful raw response.
type Payload struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewClient builds a Client restricted to the endpoint's host.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		limit:    DefaultLimit,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", c.endpoint)
	}

	c.collector = colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
		colly.AllowURLRevisit(),
	)
	c.collector.UserAgent = UserAgent
	c.collector.SetRequestTimeout(c.timeout)
	if c.transport != nil {
		c.collector.WithTransport(c.transport)
	}

	return c, nil
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch posts the release query for prefix and returns the raw response.
// Transport failures and non-2xx responses are reported as *NetworkError.
func (c *Client) Fetch(prefix string) (*Payload, error) {
	req, err := BuildRequest(c.endpoint, prefix, c.limit)
	if err != nil {
		return nil, err
	}

	col := c.collector.Clone()

	var payload *Payload
	var failed *colly.Response

	col.OnResponse(func(r *colly.Response) {
		payload = &Payload{
			Status: r.StatusCode,
			Header: headerOf(r),
			Body:   r.Body,
		}
	})

	col.OnError(func(r *colly.Response, err error) {
		output.Debug("request failed", "url", r.Request.URL, "status", r.StatusCode, "err", err)
		failed = r
	})

	output.Debug("posting release query", "url", req.URL, "version", prefix, "limit", c.limit)
	if err := col.Request(http.MethodPost, req.URL, bytes.NewReader(req.Body), nil, req.Header); err != nil {
		ne := &NetworkError{Err: err}
		if failed != nil {
			ne.Status = failed.StatusCode
			ne.Header = headerOf(failed)
			ne.Body = failed.Body
		}
		return nil, ne
	}
	if payload == nil {
		return nil, &NetworkError{Err: errNoResponse}
	}
	return payload, nil
}

// Releases fetches, decodes and parses the releases for prefix. Failures are
// logged with response diagnostics before being returned.
func (c *Client) Releases(prefix string) (Page, error) {
	p, err := c.Fetch(prefix)
	if err != nil {
		output.Error("network request failed", "version", prefix, "err", err)
		var ne *NetworkError
		if errors.As(err, &ne) && ne.Status != 0 {
			output.Warn("response diagnostics", "dump", Diagnose(ne.Status, ne.Header, ne.Body))
		}
		return Page{}, err
	}

	text, derr := Decode(p.Header, p.Body)
	if derr != nil {
		output.Warn("decompression failed, decoding raw body", "version", prefix, "err", derr)
	}

	page, err := ParseReleases(text)
	if err != nil {
		output.Error("JSON parse failed", "version", prefix, "err", err)
		output.Warn("response diagnostics", "dump", Diagnose(p.Status, p.Header, p.Body))
		return Page{}, err
	}
	for _, msg := range page.Errors {
		output.Warn("graphql error", "version", prefix, "message", msg)
	}

	logPage(page)
	return page, nil
}

func logPage(page Page) {
	output.Infof("Found %d releases", page.TotalCount)
	for i, r := range page.Releases {
		output.Debugf("release #%d: version=%s date=%s stream=%s link=%s",
			i+1, r.Version, r.ReleaseDate, r.Stream, r.HubDeepLink)
	}
}

func headerOf(r *colly.Response) http.Header {
	if r == nil || r.Headers == nil {
		return http.Header{}
	}
	return r.Headers.Clone()
}
