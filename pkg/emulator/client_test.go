package emulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// fakeEmulator serves the emulator's REST surface over a fixed topology and
// records /connect queries.
type fakeEmulator struct {
	mu        sync.Mutex
	connects  []url.Values
	nodesFail bool
}

const linksJSON = `{"links": [
	{"s1": 1, "t1": 1}, {"t1": 3, "r1": 1}, {"r1": 3, "r2": 1},
	{"r2": 3, "t2": 3}, {"t2": 1, "s2": 1}
]}`

func (f *fakeEmulator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/links", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, linksJSON)
	})
	mux.HandleFunc("/links/roadms", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"links": [{"r1": 3, "r2": 1}]}`)
	})
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		if f.nodesFail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"nodes": {"s1": "OVSSwitch", "s2": "OVSSwitch", "t1": "Terminal", "t2": "Terminal", "r1": "ROADM", "r2": "ROADM"}}`)
	})
	mux.HandleFunc("/connect", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("node") == "r9" {
			http.Error(w, "Unknown node: r9", http.StatusNotFound)
			return
		}
		f.mu.Lock()
		f.connects = append(f.connects, q)
		f.mu.Unlock()
	})
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("node") == "" {
			http.Error(w, "missing node", http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/rules", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"%s": []}`, r.URL.Query().Get("node"))
	})
	mux.HandleFunc("/monitors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"monitors": {
			"r2-r1-amp1-monitor": {"link": ["r2", "r1"], "amp": "r2-r1-amp1", "target_gain": 17.6},
			"r1-r2-amp1-monitor": {"link": ["r1", "r2"], "amp": "r1-r2-amp1", "target_gain": 17.6}
		}}`)
	})
	mux.HandleFunc("/monitor", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"osnr": {"%s": 30.1}}`, r.URL.Query().Get("monitor"))
	})
	return mux
}

func (f *fakeEmulator) queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.connects...)
}

func newTestClient(t *testing.T, f *fakeEmulator) (*Client, *metrics.Registry) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	reg := metrics.NewRegistry()
	return NewClient(srv.URL+"/", WithMetrics(reg), WithLogger(logging.NopLogger{})), reg
}

func TestLinks(t *testing.T) {
	c, _ := newTestClient(t, &fakeEmulator{})

	links, err := c.Links(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 5)
	assert.Equal(t, topology.Link{NodeA: "s1", PortA: "1", NodeB: "t1", PortB: "1"}, links[0])
	assert.Equal(t, topology.Link{NodeA: "t2", PortA: "1", NodeB: "s2", PortB: "1"}, links[4])

	roadm, err := c.ROADMLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []topology.Link{{NodeA: "r1", PortA: "3", NodeB: "r2", PortB: "1"}}, roadm)
}

func TestTopology(t *testing.T) {
	c, _ := newTestClient(t, &fakeEmulator{})

	links, kinds, err := c.Topology(context.Background())
	require.NoError(t, err)
	assert.Len(t, links, 5)
	assert.Equal(t, topology.KindRouter, kinds.Of("s1"))
	assert.Equal(t, topology.KindTerminal, kinds.Of("t1"))
	assert.Equal(t, topology.KindROADM, kinds.Of("r2"))
}

func TestTopology_NodesFallback(t *testing.T) {
	c, _ := newTestClient(t, &fakeEmulator{nodesFail: true})

	links, kinds, err := c.Topology(context.Background())
	require.NoError(t, err)
	assert.Len(t, links, 5)
	assert.Empty(t, kinds)
	assert.Equal(t, topology.KindTerminal, kinds.Of("t1"), "prefix fallback")
}

func TestConnectROADM(t *testing.T) {
	f := &fakeEmulator{}
	c, _ := newTestClient(t, f)

	err := c.ConnectROADM(context.Background(), provision.RoadmRule{Node: "r1", Port1: "1", Port2: "3", Channels: []int{5, 6}})
	require.NoError(t, err)
	err = c.ConnectROADM(context.Background(), provision.RoadmRule{Node: "r1", Port1: "1", Port2: "3", Channels: []int{5}, Remove: true})
	require.NoError(t, err)

	qs := f.queries()
	require.Len(t, qs, 2)
	assert.Equal(t, "r1", qs[0].Get("node"))
	assert.Equal(t, "1", qs[0].Get("port1"))
	assert.Equal(t, "3", qs[0].Get("port2"))
	assert.Equal(t, "5,6", qs[0].Get("channels"))
	assert.Empty(t, qs[0].Get("action"))
	assert.Equal(t, "remove", qs[1].Get("action"))
}

func TestConnectTerminal(t *testing.T) {
	f := &fakeEmulator{}
	c, _ := newTestClient(t, f)

	err := c.ConnectTerminal(context.Background(), provision.TerminalRule{Node: "t1", EthPort: "1", WDMPort: "3", Channel: 7, Power: -2.5})
	require.NoError(t, err)

	q := f.queries()[0]
	assert.Equal(t, "t1", q.Get("node"))
	assert.Equal(t, "1", q.Get("ethPort"))
	assert.Equal(t, "3", q.Get("wdmPort"))
	assert.Equal(t, "7", q.Get("channel"))
	assert.Equal(t, "-2.5", q.Get("power"))
}

func TestRequestError(t *testing.T) {
	c, reg := newTestClient(t, &fakeEmulator{})

	err := c.ConnectROADM(context.Background(), provision.RoadmRule{Node: "r9", Port1: "1", Port2: "2", Channels: []int{1}})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Equal(t, "connect", reqErr.Op)
	assert.Equal(t, "r9", reqErr.Node)
	assert.Contains(t, reqErr.Error(), "Unknown node: r9")

	m, err := reg.HTTPRequestsTotal.GetMetricWithLabelValues("emulator", "/connect", "404")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, WithMetrics(metrics.NewRegistry()), WithLogger(logging.NopLogger{}))
	err := c.Ping(context.Background())
	require.Error(t, err)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "transport failures are not request errors")

	_, err = lightpath.Load(context.Background(), c)
	assert.Equal(t, lightpath.StageFetch, lightpath.StageOf(err))
}

func TestMaintenanceCalls(t *testing.T) {
	c, _ := newTestClient(t, &fakeEmulator{})
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx, "r1"))

	rules, err := c.Rules(ctx, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"r1": []}`, string(rules))

	monitors, err := c.Monitors(ctx)
	require.NoError(t, err)
	require.Len(t, monitors, 2)
	assert.Equal(t, "r1-r2-amp1-monitor", monitors[0].Name)
	assert.Equal(t, [2]string{"r1", "r2"}, monitors[0].Link)
	assert.Equal(t, 17.6, monitors[0].TargetGain)

	reading, err := c.Monitor(ctx, "r1-r2-amp1-monitor")
	require.NoError(t, err)
	assert.Contains(t, string(reading), "r1-r2-amp1-monitor")
}

// TestProvisionEndToEnd drives a flow from topology fetch to /connect calls.
func TestProvisionEndToEnd(t *testing.T) {
	f := &fakeEmulator{}
	c, _ := newTestClient(t, f)

	batch, err := lightpath.Load(context.Background(), c)
	require.NoError(t, err)

	d := provision.NewDriver(c, provision.WithLogger(logging.NopLogger{}), provision.WithMetrics(metrics.NewRegistry()))
	ch := 11
	flow, err := d.AddFlow(context.Background(), batch, "s1", "s2", &ch, 0)
	require.NoError(t, err)
	assert.Len(t, flow.Steps, 4)

	qs := f.queries()
	nodes := make([]string, len(qs))
	for i, q := range qs {
		nodes[i] = q.Get("node")
		if q.Has("channels") {
			assert.Equal(t, "11", q.Get("channels"))
		} else {
			assert.Equal(t, "11", q.Get("channel"))
		}
	}
	assert.Equal(t, []string{"t1", "r1", "r2", "t2"}, nodes)
	// Far terminal binds eth to its router side.
	assert.Equal(t, "1", qs[3].Get("ethPort"))
	assert.Equal(t, "3", qs[3].Get("wdmPort"))
}
