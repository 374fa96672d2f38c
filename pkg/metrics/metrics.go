// Package metrics exposes the console's Prometheus metrics. The metrics
// themselves are defined in their packages (client, cache, ratelimit) via
// promauto; this package serves them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the registerer every flowdesk metric is added to.
var Registry = prometheus.DefaultRegisterer

// Path is where Serve exposes the metrics.
const Path = "/metrics"

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server exposes Handler on an address while a command runs.
type Server struct {
	srv      *http.Server
	listener net.Listener
	done     chan error
}

// Serve starts listening on addr. Use ":0" for a random port.
func Serve(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		done:     make(chan error, 1),
	}

	go func() {
		err := s.srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("Metrics endpoint listening")
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - flowdesk_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - flowdesk_rate_limit_blocks_total (Counter): Requests blocked while the quota was critical
//   - flowdesk_rate_limit_throttles_total (Counter): Requests throttled in the warning band
//
// Cache Metrics (pkg/cache):
//   - flowdesk_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - flowdesk_cache_misses_total (Counter): Cache misses
//   - flowdesk_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - flowdesk_cache_not_modified_total (Counter): 304 responses served from cache
//   - flowdesk_cache_conditional_requests_total (Counter): Conditional requests sent
//   - flowdesk_cache_invalidations_total (Counter): Keys dropped after writes
//   - flowdesk_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - flowdesk_requests_total{endpoint, status} (Counter): Requests by endpoint and status
//   - flowdesk_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - flowdesk_errors_total{class} (Counter): Errors by class (client, auth, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - flowdesk_retries_total{error_class} (Counter): Retry attempts by error class
//   - flowdesk_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - flowdesk_retry_exhausted_total{error_class} (Counter): Requests that exhausted their retries
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(flowdesk_cache_hits_total[5m])) /
//	(sum(rate(flowdesk_cache_hits_total[5m])) + sum(rate(flowdesk_cache_misses_total[5m])))
//
//	# Auth failures (expired sessions)
//	rate(flowdesk_errors_total{class="auth"}[5m])
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(flowdesk_request_duration_seconds_bucket[5m]))
