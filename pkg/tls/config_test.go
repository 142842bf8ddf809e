package tls

import (
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeServerCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClientConfigDisabled(t *testing.T) {
	cfg, err := ClientConfig(Config{})
	if err != nil {
		t.Fatalf("ClientConfig: %v", err)
	}
	if cfg != nil {
		t.Error("expected nil config when nothing is set")
	}
}

func TestHTTPClientTrustsCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := HTTPClient(Config{CAFile: writeServerCA(t, srv)}, 5*time.Second)
	if err != nil {
		t.Fatalf("HTTPClient: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with CA file: %v", err)
	}
	resp.Body.Close()

	// Without the CA the self-signed server is rejected.
	plain, _ := HTTPClient(Config{}, 5*time.Second)
	if _, err := plain.Get(srv.URL); err == nil {
		t.Error("expected certificate error without CA file")
	}
}

func TestClientConfigErrors(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{"missing CA", Config{CAFile: "/nonexistent/ca.pem"}, "CA certificate"},
		{"cert without key", Config{CertFile: "client.pem"}, "both cert_file and key_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClientConfig(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, want mention of %q", err, tt.errContains)
			}
		})
	}
}

func TestLoadCAPoolRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCAPool(path); err == nil {
		t.Error("expected parse error")
	}
}
