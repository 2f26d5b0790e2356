package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giygas/cabinet/config"
	"github.com/giygas/cabinet/controller"
	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/health"
	"github.com/giygas/cabinet/store"
	"github.com/giygas/cabinet/views"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1 << 20,
		MaxHeaderSize:  1 << 20,
	}
}

func newTestServer(t *testing.T) (*Server, *controller.Controller, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	app := controller.New(fs)
	app.Load()

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views.New: %v", err)
	}
	return NewServer(testConfig(), app, renderer, health.NewHealthChecker(app)), app, dir
}

func TestServerRoutes(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/patients", http.StatusOK},
		{http.MethodGet, "/api/patients/missing", http.StatusNotFound},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodPost, "/back", http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:3000"
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if rr.Header().Get("X-RateLimit-Limit") == "" {
				t.Error("rate limit middleware not applied")
			}
		})
	}
}

func TestServerBlocksPublicClients(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:3000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestServerMetricsCountRequests(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/api/patients", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "127.0.0.1:3000"
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)
		if path == "/metrics" && !strings.Contains(rr.Body.String(), "http_request_total") {
			t.Errorf("metrics output missing request counter")
		}
	}
}

func TestShutdownFlushesRecords(t *testing.T) {
	s, app, dir := newTestServer(t)

	form := url.Values{"nom": {"Benali"}, "prenom": {"Karim"}, "age": {"45"}, "sexe": {"Homme"}, "poids": {"78"}}
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "127.0.0.1:3000"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("add patient status = %d", rr.Code)
	}

	for _, slot := range entities.Slots() {
		_ = os.Remove(filepath.Join(dir, string(slot)+".json"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	for _, slot := range entities.Slots() {
		if _, err := os.Stat(filepath.Join(dir, string(slot)+".json")); err != nil {
			t.Errorf("slot %s not flushed: %v", slot, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "patients.json"))
	if err != nil {
		t.Fatal(err)
	}
	var patients []entities.Patient
	if err := json.Unmarshal(data, &patients); err != nil {
		t.Fatal(err)
	}
	if len(patients) != 1 || patients[0].ID != app.Snapshot().Patients[0].ID {
		t.Errorf("flushed patients = %+v", patients)
	}
}

type failingStore struct{}

func (failingStore) Load(entities.Slot, any) error { return store.ErrSlotAbsent }
func (failingStore) Save(entities.Slot, any) error { return errors.New("disk gone") }

func TestShutdownReportsFlushFailure(t *testing.T) {
	app := controller.New(failingStore{})
	renderer, err := views.New()
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(testConfig(), app, renderer, health.NewHealthChecker(app))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err == nil {
		t.Error("expected flush error")
	}
}
