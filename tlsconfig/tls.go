package tlsconfig

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrIncomplete means only one of the certificate and key was configured.
var ErrIncomplete = errors.New("tls: XMPP_HEALTH_TLS_CERT and XMPP_HEALTH_TLS_KEY must be set together")

// LoadTLSConfig returns the health listener TLS config, or nil when no
// certificate is configured.
func LoadTLSConfig() (*tls.Config, error) {
	certFile := strings.TrimSpace(os.Getenv("XMPP_HEALTH_TLS_CERT"))
	keyFile := strings.TrimSpace(os.Getenv("XMPP_HEALTH_TLS_KEY"))
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, ErrIncomplete
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tls: load key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
