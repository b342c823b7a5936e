package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/speedwagon-io/hwmon/internal/display"
	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
)

// configView is the wire shape of the display configuration.
type configView struct {
	RefreshIntervalMS int      `json:"refresh_interval_ms"`
	Order             []string `json:"order"`
}

// configPatch is a partial configuration update; absent fields keep their
// current values.
type configPatch struct {
	RefreshIntervalMS *int      `json:"refresh_interval_ms"`
	Order             *[]string `json:"order"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/config", s.handleGetConfig)
	r.Post("/api/config", s.handleUpdateConfig)
	r.Get("/api/health", s.handleHealth)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticAssets()))))

	return r
}

// handleSnapshot serves the most recent completed snapshot. It only reads
// already-published state and never triggers a fresh sample.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Latest())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, toConfigView(s.display.Current()))
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch configPatch
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		s.writeError(w, http.StatusBadRequest, "bad_request", "unexpected data after JSON body")
		return
	}

	applied, err := s.display.Apply(display.Update{
		RefreshIntervalMS: patch.RefreshIntervalMS,
		Order:             patch.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, display.ErrInvalidInterval):
			s.writeError(w, http.StatusUnprocessableEntity, "invalid_interval", err.Error())
		case errors.Is(err, display.ErrPersist):
			s.writeError(w, http.StatusInternalServerError, "persist_failed", err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, toConfigView(applied))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(staticAssets(), "index.html")
	if err != nil {
		s.log.Error("failed to read embedded index page", sl.Err(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func toConfigView(cfg display.Config) configView {
	order := cfg.Order
	if order == nil {
		order = []string{}
	}
	return configView{
		RefreshIntervalMS: int(cfg.RefreshInterval.Milliseconds()),
		Order:             order,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", sl.Err(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
