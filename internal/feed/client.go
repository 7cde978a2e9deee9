// Package feed fetches the four upstream price feeds.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"ge-price-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://prices.runescape.wiki/api/v1/osrs"
	DefaultUserAgent = "ge-price-lab/1.0"
	DefaultTimeout   = 30 * time.Second
)

// Endpoint paths relative to the base URL.
const (
	EndpointMapping = "mapping"
	EndpointLatest  = "latest"
	EndpointVolumes = "volumes"
	Endpoint5m      = "5m"
)

// StatusError is returned when an endpoint answers with a non-200 status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: failed to fetch data: %d", e.Endpoint, e.StatusCode)
}

// Client fetches feed payloads over HTTP. It never retries; a failed cycle
// is retried by the next scheduled one.
type Client struct {
	baseURL string
	http    *resty.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithUserAgent sets the User-Agent header. The wiki API rejects generic agents.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

// WithContact sets the From header so the API operators can reach the owner.
func WithContact(from string) ClientOption {
	return func(c *Client) {
		if from != "" {
			c.http.SetHeader("From", from)
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		next := resty.NewWithClient(hc)
		for k, v := range c.http.Header {
			next.Header[k] = v
		}
		c.http = next
	}
}

// NewClient creates a feed client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("User-Agent", DefaultUserAgent).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCatalog fetches the mapping endpoint.
func (c *Client) FetchCatalog(ctx context.Context) (Catalog, error) {
	var out Catalog
	if err := c.get(ctx, EndpointMapping, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchLatest fetches the latest instant prices.
func (c *Client) FetchLatest(ctx context.Context) (*LatestPrices, error) {
	var out LatestPrices
	if err := c.get(ctx, EndpointLatest, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchVolume24h fetches the 24h volume feed.
func (c *Client) FetchVolume24h(ctx context.Context) (*Volume24h, error) {
	var out Volume24h
	if err := c.get(ctx, EndpointVolumes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchVolume5m fetches the 5-minute aggregate feed.
func (c *Client) FetchVolume5m(ctx context.Context) (*Volume5m, error) {
	var out Volume5m
	if err := c.get(ctx, Endpoint5m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAll fetches the four feeds concurrently. Any failure fails the whole call.
func (c *Client) FetchAll(ctx context.Context) (*Payloads, error) {
	var p Payloads
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		p.Catalog, err = c.FetchCatalog(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.Latest, err = c.FetchLatest(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.Volume24h, err = c.FetchVolume24h(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.Volume5m, err = c.FetchVolume5m(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + "/" + endpoint)
	observability.RecordFetch(endpoint, time.Since(start).Seconds(), err == nil && resp.StatusCode() == http.StatusOK)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
