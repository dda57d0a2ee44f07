package http

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	srv *http.Server
}

// New serves api under / next to the health check and, when enabled, the
// Prometheus scrape endpoint.
func New(addr string, api http.Handler, exposeMetrics bool) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           Routes(api, exposeMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func Routes(api http.Handler, exposeMetrics bool) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", api)

	return mux
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
