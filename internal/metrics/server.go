package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/t31hub/t31hub/internal/config"
)

const readHeaderTimeout = 3 * time.Second

// CreateMetricsServer builds (but does not start) the dedicated metrics
// HTTP server when metrics are enabled. The caller is responsible for
// running ListenAndServe and shutting it down on context cancellation.
func CreateMetricsServer(cfg *config.Config) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Run starts the metrics server and blocks until ctx is cancelled.
func Run(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		<-ctx.Done()
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
