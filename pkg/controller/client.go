// Package controller talks to the ONOS network-configuration API: it reads
// the controller's link view for path computation and seeds demo devices.
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

const (
	DefaultURL      = "http://localhost:8181/onos/v1/network/configuration"
	DefaultUser     = "onos"
	DefaultPassword = "rocks"
	DefaultTimeout  = 10 * time.Second
)

// RequestError is a non-2xx answer from the controller.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("controller %s %s: status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client is an ONOS network-configuration client using HTTP basic auth.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	metrics    *metrics.Registry
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option  { return func(c *Client) { c.httpClient = hc } }
func WithMetrics(r *metrics.Registry) Option { return func(c *Client) { c.metrics = r } }
func WithLogger(l logging.Logger) Option     { return func(c *Client) { c.logger = l } }
func WithCredentials(user, password string) Option {
	return func(c *Client) { c.user, c.password = user, password }
}

// NewClient creates a client for the configuration endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       DefaultUser,
		password:   DefaultPassword,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.DefaultRegistry()
	}
	if c.logger == nil {
		c.logger = logging.DefaultLogger()
	}
	c.logger = c.logger.With(logging.Component("controller"))
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	endpoint := method + " " + path
	if path == "" {
		endpoint = method + " /"
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordHTTPRequest("controller", endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("controller %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordHTTPRequest("controller", endpoint, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read controller response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Method: method, Path: "/" + strings.TrimPrefix(path, "/"), Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// Config returns the raw network-configuration document.
func (c *Client) Config(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "", nil)
}

// Topology returns the configured links, in document order, and the device
// kinds declared by their drivers.
func (c *Client) Topology(ctx context.Context) ([]topology.Link, topology.Kinds, error) {
	start := time.Now()
	links, kinds, err := c.topology(ctx)
	c.metrics.RecordTopologyFetch("controller", len(links), err, time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("topology fetched", logging.Count(len(links)))
	return links, kinds, nil
}

func (c *Client) topology(ctx context.Context) ([]topology.Link, topology.Kinds, error) {
	data, err := c.Config(ctx)
	if err != nil {
		return nil, nil, err
	}
	links, err := topology.ParseDocument(data)
	if err != nil {
		return nil, nil, err
	}
	kinds, err := topology.ParseDeviceKinds(data)
	if err != nil {
		return nil, nil, err
	}
	return links, kinds, nil
}

// Links returns only the configured links.
func (c *Client) Links(ctx context.Context) ([]topology.Link, error) {
	links, _, err := c.topology(ctx)
	return links, err
}

// LinkCount returns the number of configured links.
func (c *Client) LinkCount(ctx context.Context) (int, error) {
	links, err := c.Links(ctx)
	return len(links), err
}

// Ping checks that the controller answers with valid credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Config(ctx)
	return err
}

// PostConfig merges cfg into the controller's configuration.
func (c *Client) PostConfig(ctx context.Context, cfg NetworkConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode network config: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "", body)
	return err
}

// DeleteLinks removes every configured link.
func (c *Client) DeleteLinks(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/links", nil)
	return err
}

// Seed posts the devices of cfg, then its links, waits for ready, and
// finally replaces the links so that any discovered before the devices
// settled are dropped. A nil ready skips the wait.
func (c *Client) Seed(ctx context.Context, cfg NetworkConfig, ready func(ctx context.Context) error) error {
	if err := c.PostConfig(ctx, cfg.DevicesOnly()); err != nil {
		return fmt.Errorf("seed devices: %w", err)
	}
	if err := c.PostConfig(ctx, cfg.LinksOnly()); err != nil {
		return fmt.Errorf("seed links: %w", err)
	}

	if ready != nil {
		if err := ready(ctx); err != nil {
			return fmt.Errorf("seed wait: %w", err)
		}
	}

	if err := c.DeleteLinks(ctx); err != nil {
		return fmt.Errorf("seed clear links: %w", err)
	}
	if err := c.PostConfig(ctx, cfg.LinksOnly()); err != nil {
		return fmt.Errorf("seed relink: %w", err)
	}

	c.logger.Info("topology seeded", logging.Int("devices", len(cfg.Devices)), logging.Int("links", len(cfg.Links)))
	return nil
}
