package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/homestats/internal/app"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", s.events.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sources", s.listSources)
		r.Get("/sources/{name}", s.getSource)
		r.Post("/sources/{name}/refresh", s.refreshSource)

		r.Get("/config/status", s.configStatus)

		r.Route("/views", func(r chi.Router) {
			r.Get("/home", s.homeView)
			r.Get("/printers", s.printersView)
			r.Get("/node", s.nodeView)
			r.Get("/guests", s.guestsView)
			r.Get("/pihole", s.piholeView)
			r.Get("/media", s.mediaView)
		})

		r.Post("/entities/{id}/toggle", s.toggleEntity)
		r.Post("/buttons/{id}/press", s.pressButton)
		r.Post("/garage/toggle", s.toggleGarage)
		r.Post("/lights/off", s.allLightsOff)
		r.Post("/lights/{group}/{action}", s.setLightGroup)
		r.Post("/printers/{printer}/buttons/{button}", s.pressPrinterButton)
		r.Get("/cameras/{id}", s.cameraImage)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s -> %d (%d bytes, %s)", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

// knownSource reports whether name is a registered poller.
func knownSource(name string) bool {
	for _, n := range app.Sources {
		if n == name {
			return true
		}
	}
	return false
}
