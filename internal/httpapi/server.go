// Package httpapi is the admin/monitoring HTTP surface: a small gin API
// reporting per-line engine status plus a gorilla/websocket feed of live
// modem-role transitions, fed by internal/pubsub.
//
// Grounded on the teacher's internal/http/websocket (upgrade-and-broadcast
// shape) and internal/pprof (CreateServer/Run lifecycle pair).
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/t31hub/t31hub/internal/config"
	"github.com/t31hub/t31hub/internal/pubsub"
)

const readHeaderTimeout = 3 * time.Second

// LineStatusProvider answers "what is line N doing right now" for the
// REST status endpoint; internal/dteio.Line satisfies it.
type LineStatusProvider interface {
	Status() (line int, mode string, ctsAsserted bool)
}

// Server is the admin HTTP API.
type Server struct {
	http  *http.Server
	ws    *wsHandler
	lines []LineStatusProvider
	log   *slog.Logger
}

// New builds (but does not start) the admin HTTP API when cfg.HTTP.Enabled.
// Returns nil if disabled.
func New(cfg *config.Config, ps pubsub.PubSub, lines []LineStatusProvider, log *slog.Logger) *Server {
	if !cfg.HTTP.Enabled {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		lines: lines,
		log:   log,
		ws:    newWSHandler(ps, log),
	}

	r.GET("/api/v1/lines", s.handleLines)
	r.GET("/ws/status", s.ws.handle)

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.BindAddress, cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) handleLines(c *gin.Context) {
	type lineStatus struct {
		Line        int    `json:"line"`
		Mode        string `json:"mode"`
		CTSAsserted bool   `json:"cts_asserted"`
	}
	out := make([]lineStatus, 0, len(s.lines))
	for _, l := range s.lines {
		line, mode, cts := l.Status()
		out = append(out, lineStatus{Line: line, Mode: mode, CTSAsserted: cts})
	}
	c.JSON(http.StatusOK, out)
}

// Run starts the admin HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		<-ctx.Done()
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin http api listening", "address", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
