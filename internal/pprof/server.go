// Package pprof serves Go's runtime profiler behind gin, mirroring the
// teacher's internal/pprof package.
package pprof

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/t31hub/t31hub/internal/config"
)

const readHeaderTimeout = 3 * time.Second

// CreatePProfServer builds (but does not start) the pprof HTTP server when
// enabled.
func CreatePProfServer(cfg *config.Config) *http.Server {
	if !cfg.PProf.Enabled {
		return nil
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	ginpprof.Register(r)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.PProf.BindAddress, cfg.PProf.Port),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Run starts the pprof server and blocks until ctx is cancelled.
func Run(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		<-ctx.Done()
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("pprof server listening", "address", srv.Addr)
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
