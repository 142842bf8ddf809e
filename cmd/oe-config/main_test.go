package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-lightpath/pkg/algorithms"
	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
)

// fakeEmulator serves a linear s1-t1-r1-r2-t2-s2 network and records
// /connect calls.
type fakeEmulator struct {
	mu       sync.Mutex
	connects []url.Values
}

func (f *fakeEmulator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/links", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"links": [
			{"s1": 1, "t1": 1}, {"t1": 3, "r1": 1}, {"r1": 3, "r2": 1},
			{"r2": 3, "t2": 3}, {"t2": 1, "s2": 1}, {"s9": 1, "h9": 1}
		]}`)
	})
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nodes": {"s1": "OVSSwitch", "t1": "Terminal", "r1": "ROADM", "r2": "ROADM", "t2": "Terminal", "s2": "OVSSwitch"}}`)
	})
	mux.HandleFunc("/connect", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.connects = append(f.connects, r.URL.Query())
		f.mu.Unlock()
	})
	return mux
}

func (f *fakeEmulator) queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.connects...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func startEmulator(t *testing.T) (*fakeEmulator, string) {
	t.Helper()
	f := &fakeEmulator{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func TestPathDryRun(t *testing.T) {
	f, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "-q", "path", "s1", "s2", "--channel", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "s1 -> s2, 5 hops")
	assert.Contains(t, out, "channel=9")
	assert.Empty(t, f.queries(), "dry run must not configure devices")
}

func TestAddFlow(t *testing.T) {
	f, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "-q", "add-flow", "s1", "s2", "12", "--", "-1.5")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 4 steps")

	qs := f.queries()
	require.Len(t, qs, 4)
	assert.Equal(t, "t1", qs[0].Get("node"))
	assert.Equal(t, "12", qs[0].Get("channel"))
	assert.Equal(t, "-1.5", qs[0].Get("power"))
	assert.Equal(t, "12", qs[1].Get("channels"))
}

func TestAddFlowRejectsBadRequest(t *testing.T) {
	_, emu := startEmulator(t)

	_, err := execute(t, "--emulator", emu, "add-flow", "s1", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Destination")

	_, err = execute(t, "--emulator", emu, "add-flow", "s1", "s2", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

func TestAddFlowUnreachable(t *testing.T) {
	_, emu := startEmulator(t)

	_, err := execute(t, "--emulator", emu, "-q", "add-flow", "s1", "s9", "3")
	require.ErrorIs(t, err, algorithms.ErrNoPath)
	assert.Equal(t, 4, exitCode(err))
	assert.Contains(t, renderError(err), "[solve]")
}

func TestShowLinksView(t *testing.T) {
	_, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "show-links", "roadm")
	require.NoError(t, err)
	assert.Contains(t, out, "1 links")
	assert.Contains(t, out, "r2")

	_, err = execute(t, "--emulator", emu, "show-links", "optical")
	require.Error(t, err)
}

func TestTopologyFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
links:
  - s1/1-t1/1
  - t1/3-r1/1
  - r1/2-t2/3
  - t2/1-s2/1
`), 0o600))

	out, err := execute(t, "--file", path, "reach", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "reachable from s1")
	assert.Contains(t, out, "s2")
}

func TestUnreachableEmulatorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := execute(t, "--emulator", srv.URL, "path", "s1", "s2")
	require.Error(t, err)
	assert.Equal(t, lightpath.StageFetch, lightpath.StageOf(err))
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("plain")))
	assert.Equal(t, 6, exitCode(&lightpath.StageError{Stage: lightpath.StageProvision, Err: errors.New("x")}))
	assert.Equal(t, 5, exitCode(fmt.Errorf("wrapped: %w", &lightpath.StageError{Stage: lightpath.StageReconstruct, Err: lightpath.ErrTopologyMismatch})))
}

func TestParseChannels(t *testing.T) {
	got, err := parseChannels("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	_, err = parseChannels("1,x")
	assert.Error(t, err)
}

func TestReachOptical(t *testing.T) {
	_, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "reach", "r1", "--optical")
	require.NoError(t, err)
	assert.Contains(t, out, "t2")
	assert.NotContains(t, out, "s2")
}

func TestComponents(t *testing.T) {
	_, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "components")
	require.NoError(t, err)
	assert.Contains(t, out, "2 components")
}

func TestDefaultTopoEmulatorOnly(t *testing.T) {
	f, emu := startEmulator(t)

	out, err := execute(t, "--emulator", emu, "default-topo", "--skip-controller")
	require.NoError(t, err)
	assert.Contains(t, out, "default topology configured")
	assert.Len(t, f.queries(), 13)
}
