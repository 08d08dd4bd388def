// campusvoice/handlers/main_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"campusvoice/config"
	"campusvoice/database"
	"campusvoice/identity"
	"campusvoice/models"
)

// stubAssistant answers with canned values and counts calls.
type stubAssistant struct {
	suggestion  string
	suggestErr  error
	question    string
	questionErr error
	calls       int
}

func (s *stubAssistant) Suggest(context.Context, string, string, string) (string, error) {
	s.calls++
	return s.suggestion, s.suggestErr
}

func (s *stubAssistant) PollQuestion(context.Context, string, string) (string, error) {
	s.calls++
	return s.question, s.questionErr
}

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db        *database.DatabaseService
	logger    *slog.Logger
	cfg       *config.Config
	assistant *stubAssistant
	identity  *identity.Provider
	backups   models.BackupStore
}

func (a *MockApplication) DB() *database.DatabaseService   { return a.db }
func (a *MockApplication) Logger() *slog.Logger            { return a.logger }
func (a *MockApplication) Config() *config.Config          { return a.cfg }
func (a *MockApplication) Assistant() models.Assistant     { return a.assistant }
func (a *MockApplication) Visitors() models.VisitorCounter { return a.db }
func (a *MockApplication) Identity() *identity.Provider    { return a.identity }
func (a *MockApplication) Backups() models.BackupStore     { return a.backups }

// setupTestApp creates a full application stack backed by a temporary SQLite file.
func setupTestApp(t *testing.T) *MockApplication {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "test.db")
	cfg.Database.BackupDir = filepath.Join(dir, "backups")
	cfg.Identity.TokenSecret = "handler-test-secret"

	dbService, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { dbService.Close() })

	return &MockApplication{
		db:        dbService,
		logger:    logger,
		cfg:       cfg,
		assistant: &stubAssistant{question: "Should the canteen stay open later?", suggestion: "Talk to the warden."},
		identity:  identity.NewProvider(cfg.Identity, logger),
	}
}

// doJSON sends body as JSON through h and returns the recorder.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// doRaw sends an unencoded body through h.
func doRaw(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rr)["error"]
}

// createProblem posts a problem through the router and returns it.
func createProblem(t *testing.T, h http.Handler, device, title string) models.Problem {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/problems", map[string]string{
		"title":       title,
		"description": "Details for " + title,
		"category":    "Hostel",
		"device_id":   device,
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating problem, got %d: %s", rr.Code, rr.Body.String())
	}
	return decodeBody[models.Problem](t, rr)
}
