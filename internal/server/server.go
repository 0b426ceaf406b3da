// Package server exposes the pollers over HTTP: JSON snapshots and view
// models, a few Home Assistant commands, an SSE stream per source and the
// Prometheus endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/r3labs/sse/v2"

	"github.com/rileyhilliard/homestats/internal/app"
	"github.com/rileyhilliard/homestats/internal/logger"
	"github.com/rileyhilliard/homestats/internal/observability"
	"github.com/rileyhilliard/homestats/internal/source"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Server serves one App.
type Server struct {
	app    *app.App
	events *sse.Server
	log    logger.Logger
	router chi.Router
}

// New builds the router and one event stream per source.
func New(a *app.App, log logger.Logger) *Server {
	if log == nil {
		log = logger.Noop()
	}
	events := sse.New()
	events.AutoReplay = false
	events.AutoStream = false
	events.OnSubscribe = func(string, *sse.Subscriber) { observability.SSEClients.Inc() }
	events.OnUnsubscribe = func(string, *sse.Subscriber) { observability.SSEClients.Dec() }
	for _, name := range app.Sources {
		events.CreateStream(name)
	}

	s := &Server{app: a, events: events, log: log}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, publishing every snapshot to
// its event stream.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Publish(ctx)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.log.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.events.Close()
	return srv.Shutdown(shutdownCtx)
}

// Publish forwards snapshot updates to the event streams until ctx ends.
func (s *Server) Publish(ctx context.Context) {
	go pump(ctx, s, app.SourceHomeAssistant, s.app.Entities.State())
	go pump(ctx, s, app.SourceDevices, s.app.Devices.State())
	go pump(ctx, s, app.SourceProxmox, s.app.Proxmox.State())
	go pump(ctx, s, app.SourcePihole, s.app.Pihole.State())
	go pump(ctx, s, app.SourceMedia, s.app.Media.State())
	<-ctx.Done()
}

func pump[T any](ctx context.Context, s *Server, name string, st *source.State[T]) {
	updates, stop := st.Subscribe()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			data, err := json.Marshal(source.StatusOf(st))
			if err != nil {
				s.log.Warn("encode %s event: %v", name, err)
				continue
			}
			s.events.Publish(name, &sse.Event{Event: []byte("snapshot"), Data: data})
		}
	}
}
