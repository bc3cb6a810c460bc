// Package httpapi exposes the triangulation pipeline over HTTP: upload a
// signal file and run a triangulation, fetch a previously stored run, or
// render one as an HTML chart. Grounded on api/server.go's ServeMux/
// http.HandleFunc routing style (banshee-data/velocity.report) and the
// upload/run/retrieve shape of original_source/src/rest/PolarisServer.cpp,
// AlgorithmRunner.cpp, and src/utils/FileReceiver.cpp.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/banshee-data/rfloc/internal/ingest"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/report"
	"github.com/banshee-data/rfloc/internal/store"
	"github.com/banshee-data/rfloc/internal/triangulate"
)

// Server serves the triangulation HTTP API.
type Server struct {
	DB       *store.DB
	Params   *params.Store
	Strategy func(*params.Store) triangulate.Strategy
}

// ServeMux builds the server's route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRun)
	mux.HandleFunc("/api/runs/chart/", s.handleChart)
	return mux
}

// handleRuns accepts POST with an uploaded signal file to run a
// triangulation, and GET to list stored runs.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUploadAndRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUploadAndRun(w http.ResponseWriter, r *http.Request) {
	pointsByDevice, origin, err := ingest.Parse(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipeline := &triangulate.Pipeline{
		Origin:   origin,
		Strategy: s.Strategy(s.Params),
		Params:   s.Params,
	}

	result, err := pipeline.Run(r.Context(), pointsByDevice)
	if err != nil {
		log.Printf("httpapi: triangulation run failed: %v", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id, err := s.DB.SaveRun(result, nil)
	if err != nil {
		log.Printf("httpapi: failed to persist run: %v", err)
		http.Error(w, "failed to persist run", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"result": result,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.DB.ListRuns(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/runs/"):]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	run, err := s.DB.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/runs/chart/"):]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	run, err := s.DB.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	page := report.RunSummaryChart(run)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		log.Printf("httpapi: rendering chart for run %s: %v", id, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encoding response: %v", err)
	}
}
