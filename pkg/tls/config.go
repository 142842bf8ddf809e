// Package tls builds client TLS settings for controllers served over HTTPS.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Config holds client TLS options.
type Config struct {
	CAFile   string `yaml:"ca_file"`   // PEM roots that replace the system pool
	CertFile string `yaml:"cert_file"` // client certificate, for mutual TLS
	KeyFile  string `yaml:"key_file"`

	// InsecureSkipVerify disables server verification (lab use only)
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Enabled reports whether any TLS option is set.
func (c Config) Enabled() bool {
	return c.CAFile != "" || c.CertFile != "" || c.KeyFile != "" || c.InsecureSkipVerify
}

// ClientConfig returns the crypto/tls settings for cfg, or nil when cfg
// sets nothing and the system defaults apply.
func ClientConfig(cfg Config) (*tls.Config, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // operator opt-in
	}

	if cfg.CAFile != "" {
		pool, err := LoadCAPool(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load CA certificate: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	case cfg.CertFile != "" || cfg.KeyFile != "":
		return nil, errors.New("client certificate needs both cert_file and key_file")
	}

	return tlsConfig, nil
}

// HTTPClient returns an HTTP client with the given timeout that uses cfg
// for HTTPS connections.
func HTTPClient(cfg Config, timeout time.Duration) (*http.Client, error) {
	tlsConfig, err := ClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: timeout}
	if tlsConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		client.Transport = transport
	}
	return client, nil
}

// LoadCAPool loads a CA certificate pool from a file
func LoadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	return certPool, nil
}
