package health

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"xmppctl/host"
	"xmppctl/internal/config"
	"xmppctl/queue"
	"xmppctl/tlsconfig"
)

const previewSize = 5

// QueueStatus is the /queue response body.
type QueueStatus struct {
	Total       int                   `json:"total"`
	Unprocessed int                   `json:"unprocessed"`
	Preview     []queue.SnapshotEntry `json:"preview"`
}

// NewRouter serves liveness, metrics and a queue summary for h.
func NewRouter(h host.Host, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/queue", func(w http.ResponseWriter, r *http.Request) {
		total, unprocessed := h.Counts()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(QueueStatus{
			Total:       total,
			Unprocessed: unprocessed,
			Preview:     h.Snapshot(previewSize),
		})
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Msg("request completed")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// StartHealthServer listens on addr and serves NewRouter in the background.
// TLS is used when tlsConf is non-nil.
func StartHealthServer(addr string, h host.Host, tlsConf *tls.Config, logger zerolog.Logger) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("health listen %s: %w", addr, err)
	}
	if tlsConf != nil {
		ln = tls.NewListener(ln, tlsConf)
	}

	log := logger.With().Str("component", "health").Logger()
	srv := &http.Server{
		Handler:           NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Bool("tls", tlsConf != nil).Msg("health server listening")
	return srv, ln, nil
}

// StartFromEnv starts the listener on XMPP_HEALTH_ADDR, with TLS when
// XMPP_HEALTH_TLS_CERT and XMPP_HEALTH_TLS_KEY are set. It returns a nil
// server when no address is configured.
func StartFromEnv(h host.Host, logger zerolog.Logger) (*http.Server, net.Listener, error) {
	addr := config.String("XMPP_HEALTH_ADDR", "")
	if addr == "" {
		return nil, nil, nil
	}
	tlsConf, err := tlsconfig.LoadTLSConfig()
	if err != nil {
		return nil, nil, err
	}
	return StartHealthServer(addr, h, tlsConf, logger)
}

var probeClient = &http.Client{Timeout: 2 * time.Second}

// Probe checks that a gateway health endpoint at baseURL answers OK.
func Probe(ctx context.Context, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: unexpected status %d", resp.StatusCode)
	}
	return nil
}
