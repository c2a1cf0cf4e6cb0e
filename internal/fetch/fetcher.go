package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrTransport marks failures where no HTTP response was received at all
// (DNS, connection refused, TLS, timeouts). Callers may retry these.
var ErrTransport = errors.New("transport failure")

type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx response.
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Missing reports a response that says the resource does not exist.
func (p *Page) Missing() bool {
	return p.StatusCode == http.StatusNotFound || p.StatusCode == http.StatusGone
}

func (p *Page) IsJSON() bool {
	return strings.Contains(strings.ToLower(p.ContentType), "json")
}

type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxRedirects   int
}

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(opts Options) *Fetcher {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}

	client := resty.New().
		SetTimeout(opts.RequestTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects)).
		SetHeader("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Fetcher{client: client}
}

// Get fetches rawURL. Any HTTP response, including 4xx and 5xx, is returned
// as a Page; only failures to get a response are errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, rawURL, err)
	}

	return &Page{
		URL:         rawURL,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
