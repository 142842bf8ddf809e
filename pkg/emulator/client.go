// Package emulator is a client for the optical network emulator's REST
// interface: topology discovery, per-hop configuration and monitoring.
package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

const (
	// DefaultURL is where the emulator serves REST by default.
	DefaultURL = "http://localhost:8080"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// RequestError is a non-2xx answer from the emulator.
type RequestError struct {
	Op     string
	Node   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("emulator %s", e.Op)
	if e.Node != "" {
		msg += " " + e.Node
	}
	msg += fmt.Sprintf(": status %d", e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to one emulator instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Registry
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option  { return func(c *Client) { c.httpClient = hc } }
func WithMetrics(r *metrics.Registry) Option { return func(c *Client) { c.metrics = r } }
func WithLogger(l logging.Logger) Option     { return func(c *Client) { c.logger = l } }
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// NewClient creates a client for baseURL, or DefaultURL if empty.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
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
	c.logger = c.logger.With(logging.Component("emulator"))
	return c
}

// BaseURL returns the emulator address.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, endpoint, node string, query url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordHTTPRequest("emulator", endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("emulator %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordHTTPRequest("emulator", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			Op:     strings.TrimPrefix(endpoint, "/"),
			Node:   node,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return data, nil
}

func (c *Client) links(ctx context.Context, endpoint string) ([]topology.Link, error) {
	data, err := c.get(ctx, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	links, err := topology.ParseLinkList(data)
	if err != nil {
		return nil, fmt.Errorf("emulator %s: %w", endpoint, err)
	}
	return links, nil
}

// Links returns every link known to the emulator.
func (c *Client) Links(ctx context.Context) ([]topology.Link, error) {
	return c.links(ctx, "/links")
}

// ROADMLinks returns ROADM-to-ROADM links only.
func (c *Client) ROADMLinks(ctx context.Context) ([]topology.Link, error) {
	return c.links(ctx, "/links/roadms")
}

// TerminalLinks returns terminal-to-ROADM links only.
func (c *Client) TerminalLinks(ctx context.Context) ([]topology.Link, error) {
	return c.links(ctx, "/links/terminals")
}

// RouterLinks returns links touching a packet router.
func (c *Client) RouterLinks(ctx context.Context) ([]topology.Link, error) {
	return c.links(ctx, "/links/routers")
}

// Nodes returns the declared kind of every node.
func (c *Client) Nodes(ctx context.Context) (topology.Kinds, error) {
	data, err := c.get(ctx, "/nodes", "", nil)
	if err != nil {
		return nil, err
	}
	kinds, err := topology.ParseNodes(data)
	if err != nil {
		return nil, fmt.Errorf("emulator /nodes: %w", err)
	}
	return kinds, nil
}

// Topology fetches links and node kinds. If the node listing fails the
// snapshot is still returned and kinds fall back to the naming convention.
func (c *Client) Topology(ctx context.Context) ([]topology.Link, topology.Kinds, error) {
	start := time.Now()
	links, err := c.Links(ctx)
	c.metrics.RecordTopologyFetch("emulator", len(links), err, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	kinds, err := c.Nodes(ctx)
	if err != nil {
		c.logger.Warn("node kinds unavailable, using name prefixes", logging.Error(err))
		kinds = topology.Kinds{}
	}

	c.logger.Debug("topology fetched", logging.Count(len(links)), logging.Latency(time.Since(start)))
	return links, kinds, nil
}

// LinkCount returns the number of links currently reported.
func (c *Client) LinkCount(ctx context.Context) (int, error) {
	links, err := c.Links(ctx)
	return len(links), err
}

// Ping checks that the emulator answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/nodes", "", nil)
	return err
}

var _ provision.Configurator = (*Client)(nil)

// ConnectROADM installs or removes a ROADM cross-connect.
func (c *Client) ConnectROADM(ctx context.Context, rule provision.RoadmRule) error {
	channels := make([]string, len(rule.Channels))
	for i, ch := range rule.Channels {
		channels[i] = strconv.Itoa(ch)
	}

	q := url.Values{}
	q.Set("node", rule.Node)
	q.Set("port1", rule.Port1)
	q.Set("port2", rule.Port2)
	q.Set("channels", strings.Join(channels, ","))
	if rule.Remove {
		q.Set("action", "remove")
	}

	_, err := c.get(ctx, "/connect", rule.Node, q)
	return err
}

// ConnectTerminal configures or removes a terminal transponder.
func (c *Client) ConnectTerminal(ctx context.Context, rule provision.TerminalRule) error {
	q := url.Values{}
	q.Set("node", rule.Node)
	q.Set("ethPort", rule.EthPort)
	q.Set("wdmPort", rule.WDMPort)
	q.Set("channel", strconv.Itoa(rule.Channel))
	q.Set("power", strconv.FormatFloat(rule.Power, 'f', -1, 64))
	if rule.Remove {
		q.Set("action", "remove")
	}

	_, err := c.get(ctx, "/connect", rule.Node, q)
	return err
}

// Reset clears every rule installed on node.
func (c *Client) Reset(ctx context.Context, node string) error {
	_, err := c.get(ctx, "/reset", node, url.Values{"node": {node}})
	return err
}

// Rules returns the rules installed on node as reported by the emulator.
func (c *Client) Rules(ctx context.Context, node string) (json.RawMessage, error) {
	data, err := c.get(ctx, "/rules", node, url.Values{"node": {node}})
	return json.RawMessage(data), err
}

// Ports returns node's port map as reported by the emulator.
func (c *Client) Ports(ctx context.Context, node string) (json.RawMessage, error) {
	data, err := c.get(ctx, "/ports", node, url.Values{"node": {node}})
	return json.RawMessage(data), err
}

// MonitorInfo describes an optical performance monitor.
type MonitorInfo struct {
	Name       string
	Link       [2]string
	Amplifier  string
	TargetGain float64
}

type monitorJSON struct {
	Link       []string `json:"link"`
	Amp        string   `json:"amp"`
	TargetGain float64  `json:"target_gain"`
}

// Monitors lists the monitors on optical links, sorted by name.
func (c *Client) Monitors(ctx context.Context) ([]MonitorInfo, error) {
	data, err := c.get(ctx, "/monitors", "", nil)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Monitors map[string]monitorJSON `json:"monitors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("emulator /monitors: %w", err)
	}

	out := make([]MonitorInfo, 0, len(doc.Monitors))
	for name, m := range doc.Monitors {
		info := MonitorInfo{Name: name, Amplifier: m.Amp, TargetGain: m.TargetGain}
		copy(info.Link[:], m.Link)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Monitor returns the readings of one monitor.
func (c *Client) Monitor(ctx context.Context, name string) (json.RawMessage, error) {
	data, err := c.get(ctx, "/monitor", name, url.Values{"monitor": {name}})
	return json.RawMessage(data), err
}
