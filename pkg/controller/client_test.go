package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// fakeONOS keeps a network configuration in memory and logs each call.
type fakeONOS struct {
	mu    sync.Mutex
	cfg   NetworkConfig
	calls []string
}

func (f *fakeONOS) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != DefaultUser || pass != DefaultPassword {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			_ = json.NewEncoder(w).Encode(f.cfg)
		case r.Method == http.MethodPost && r.URL.Path == "/":
			body, _ := io.ReadAll(r.Body)
			var in NetworkConfig
			if err := json.Unmarshal(body, &in); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if f.cfg.Devices == nil {
				f.cfg.Devices = make(map[string]Device)
			}
			if f.cfg.Links == nil {
				f.cfg.Links = make(map[string]LinkConfig)
			}
			for k, v := range in.Devices {
				f.cfg.Devices[k] = v
			}
			for k, v := range in.Links {
				f.cfg.Links[k] = v
			}
		case r.Method == http.MethodDelete && r.URL.Path == "/links":
			f.cfg.Links = nil
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
}

func (f *fakeONOS) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeONOS) linkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cfg.Links)
}

func newTestClient(t *testing.T, f *fakeONOS, opts ...Option) (*Client, *metrics.Registry) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	reg := metrics.NewRegistry()
	opts = append([]Option{WithMetrics(reg), WithLogger(logging.NopLogger{})}, opts...)
	return NewClient(srv.URL, opts...), reg
}

func TestDefaultTopology(t *testing.T) {
	cfg := DefaultTopology()

	require.Len(t, cfg.Devices, 3)
	dev := cfg.Devices["rest:127.0.0.1:9002"]
	assert.Equal(t, 9002, dev.REST.Port)
	assert.Equal(t, "http", dev.REST.Protocol)
	assert.Equal(t, RoadmDriver, dev.Basic.Driver)

	assert.Contains(t, cfg.Links, "rest:127.0.0.1:9001/3-rest:127.0.0.1:9002/3")
	assert.Contains(t, cfg.Links, "rest:127.0.0.1:9002/4-rest:127.0.0.1:9003/3")

	data, err := json.Marshal(cfg.LinksOnly())
	require.NoError(t, err)
	assert.JSONEq(t, `{"links": {
		"rest:127.0.0.1:9001/3-rest:127.0.0.1:9002/3": {"basic": {}},
		"rest:127.0.0.1:9002/4-rest:127.0.0.1:9003/3": {"basic": {}}
	}}`, string(data))
}

func TestSeedSequence(t *testing.T) {
	f := &fakeONOS{}
	c, _ := newTestClient(t, f)

	waited := false
	err := c.Seed(context.Background(), DefaultTopology(), func(ctx context.Context) error {
		waited = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, waited)

	assert.Equal(t, []string{"POST /", "POST /", "DELETE /links", "POST /"}, f.log())
	assert.Equal(t, 2, f.linkCount(), "links re-posted after clear")
}

func TestSeedStopsWhenNotReady(t *testing.T) {
	f := &fakeONOS{}
	c, _ := newTestClient(t, f)

	notReady := errors.New("devices not discovered")
	err := c.Seed(context.Background(), DefaultTopology(), func(ctx context.Context) error {
		return notReady
	})
	require.ErrorIs(t, err, notReady)
	assert.Equal(t, []string{"POST /", "POST /"}, f.log())
}

func TestTopologyFromControllerView(t *testing.T) {
	f := &fakeONOS{}
	c, reg := newTestClient(t, f)
	ctx := context.Background()
	require.NoError(t, c.PostConfig(ctx, DefaultTopology()))

	links, kinds, err := c.Topology(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, topology.KindROADM, kinds.Of("rest:127.0.0.1:9003"))

	n, err := c.LinkCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	batch, err := lightpath.Load(ctx, c)
	require.NoError(t, err)
	path, err := batch.Compute("rest:127.0.0.1:9001", "rest:127.0.0.1:9003")
	require.NoError(t, err)
	assert.Equal(t, []string{"rest:127.0.0.1:9001", "rest:127.0.0.1:9002", "rest:127.0.0.1:9003"}, path.Nodes)
	// The transit ROADM crosses from port 3 to port 4.
	assert.Equal(t, "3", path.Hops[1].InPort)
	assert.Equal(t, "4", path.Hops[1].OutPort)

	m, err := reg.TopologyFetchesTotal.GetMetricWithLabelValues("controller", "success")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestBadCredentials(t *testing.T) {
	c, _ := newTestClient(t, &fakeONOS{}, WithCredentials("onos", "wrong"))

	err := c.Ping(context.Background())
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
	assert.Equal(t, http.MethodGet, reqErr.Method)
}

func TestMalformedLinkKeyIsFlattenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"links": {"not-a-link": {"basic": {}}}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, WithMetrics(metrics.NewRegistry()), WithLogger(logging.NopLogger{}))
	_, err := lightpath.Load(context.Background(), c)
	require.ErrorIs(t, err, topology.ErrMalformedLinkKey)
	assert.Equal(t, lightpath.StageFlatten, lightpath.StageOf(err))
}

func TestDemoRules(t *testing.T) {
	terminals, roadms := DemoRules()
	assert.Len(t, terminals, 6)
	assert.Len(t, roadms, 7)
	for _, r := range roadms {
		assert.Len(t, r.Channels, 1, r.String())
	}
}
