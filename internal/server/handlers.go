package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rileyhilliard/homestats/internal/store"
)

// SourceSummary is one row of GET /api/v1/sources.
type SourceSummary struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Busy    bool   `json:"busy"`
	Skipped int64  `json:"skipped"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"config": s.app.Store.Status().String(),
	})
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	out := make([]SourceSummary, 0, len(s.app.Schedulers.Names()))
	for _, name := range s.app.Schedulers.Names() {
		sched, _ := s.app.Schedulers.Get(name)
		out = append(out, SourceSummary{
			Name:    name,
			Running: sched.Running(),
			Busy:    sched.Busy(),
			Skipped: sched.Skipped(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownSource(name) {
		writeError(w, http.StatusNotFound, "unknown source "+strconv.Quote(name))
		return
	}
	status, err := s.app.Status(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// refreshSource asks the scheduler for an out-of-band cycle. 409 means a
// cycle was already running and this request was dropped.
func (s *Server) refreshSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sched, ok := s.app.Schedulers.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source "+strconv.Quote(name))
		return
	}
	if !sched.Trigger() {
		writeError(w, http.StatusConflict, name+" is already refreshing")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) configStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		store.SyncStatus
		LastSync time.Time `json:"last_sync"`
	}{s.app.Store.Status(), s.app.Store.LastSync()})
}

func (s *Server) homeView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Home())
}

func (s *Server) printersView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Printers())
}

func (s *Server) nodeView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.app.NodeCard()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no Proxmox data yet")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) guestsView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Guests())
}

func (s *Server) piholeView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.app.PiholeCard()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no Pi-hole data yet")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) mediaView(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.app.MediaSnapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no media data yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) toggleEntity(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.app.Toggle(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) pressButton(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.app.Press(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) toggleGarage(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.app.ToggleGarage(r.Context()))
}

func (s *Server) allLightsOff(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.app.AllLightsOff(r.Context()))
}

func (s *Server) setLightGroup(w http.ResponseWriter, r *http.Request) {
	var on bool
	switch chi.URLParam(r, "action") {
	case "on":
		on = true
	case "off":
	default:
		writeError(w, http.StatusNotFound, "action must be on or off")
		return
	}
	s.command(w, r, s.app.SetLightGroup(r.Context(), chi.URLParam(r, "group"), on))
}

func (s *Server) pressPrinterButton(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.app.PressPrinterButton(r.Context(), chi.URLParam(r, "printer"), chi.URLParam(r, "button")))
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) cameraImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.app.HA.CameraImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
