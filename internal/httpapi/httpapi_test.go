package httpapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/rfloc/internal/cliconfig"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/store"
	"github.com/banshee-data/rfloc/internal/testutil"
	"github.com/banshee-data/rfloc/internal/triangulate"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	p, err := cliconfig.LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	db, err := store.Open(filepath.Join(t.TempDir(), "rfloc-test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Server{
		DB:     db,
		Params: p,
		Strategy: func(p *params.Store) triangulate.Strategy {
			return &triangulate.DirectStrategy{Params: p}
		},
	}
}

func TestHandleUploadAndRunRejectsGarbage(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	s.ServeMux().ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
}

func TestHandleListRunsEmpty(t *testing.T) {
	s := testServer(t)
	req := testutil.NewTestRequest(http.MethodGet, "/api/runs")
	w := httptest.NewRecorder()

	s.ServeMux().ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
}

func TestHandleRunNotFound(t *testing.T) {
	s := testServer(t)
	req := testutil.NewTestRequest(http.MethodGet, "/api/runs/does-not-exist")
	w := httptest.NewRecorder()

	s.ServeMux().ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)
}
