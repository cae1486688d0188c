package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/knoweval/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "test-1",
		Source:    SourceDashboard,
		SessionID: "sess-1",
		Action:    ActionEvaluationRecorded,
		File:      "physics.txt",
		Model:     "gemini-2.0-flash",
		Focus:     "Conceptual accuracy",
		Record:    "physics_20250101_120000.json",
		Summary:   "Evaluated physics.txt",
		Detail:    "1200 input tokens",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Source != SourceDashboard {
		t.Errorf("Source = %q, want %q", got.Source, SourceDashboard)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", got.SessionID, "sess-1")
	}
	if got.Action != ActionEvaluationRecorded {
		t.Errorf("Action = %q, want %q", got.Action, ActionEvaluationRecorded)
	}
	if got.File != "physics.txt" {
		t.Errorf("File = %q, want %q", got.File, "physics.txt")
	}
	if got.Record != "physics_20250101_120000.json" {
		t.Errorf("Record = %q", got.Record)
	}
	if got.Focus != "Conceptual accuracy" {
		t.Errorf("Focus = %q", got.Focus)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set by the database")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Action: ActionNoteCreated, File: "a.txt"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{File: "a.txt"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
	if entries[0].Source != SourceCLI {
		t.Errorf("default Source = %q, want cli", entries[0].Source)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{Source: SourceCLI, SessionID: "s1", Action: ActionNoteCreated, File: "a.txt"},
		{Source: SourceDashboard, SessionID: "s2", Action: ActionEvaluationRecorded, File: "a.txt"},
		{Source: SourceDashboard, SessionID: "s2", Action: ActionEvaluationFailed, File: "b.txt"},
		{Source: SourceMCP, SessionID: "s3", Action: ActionEvaluationRecorded, File: "b.txt"},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"by source", QueryFilter{Source: SourceDashboard}, 2},
		{"by session", QueryFilter{SessionID: "s3"}, 1},
		{"by action", QueryFilter{Action: ActionEvaluationRecorded}, 2},
		{"by file", QueryFilter{File: "b.txt"}, 2},
		{"combined", QueryFilter{Action: ActionEvaluationRecorded, File: "a.txt"}, 1},
		{"no match", QueryFilter{File: "c.txt"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Log(ctx, Entry{ID: id, Action: ActionNoteUpdated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "third" || entries[2].ID != "first" {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Entry{Action: ActionNoteUpdated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with offset, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Offset: 4})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry with offset only, got %d", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{Action: ActionNoteDeleted}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	// Nothing is older than an hour ago.
	deleted, err := store.DeleteBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deleted, got %d", deleted)
	}

	deleted, err = store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 remaining entries, got %d", len(entries))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)

	entry := Entry{
		ID:      "http-1",
		Source:  SourceMCP,
		Action:  ActionNoteCreated,
		File:    "intro.txt",
		Summary: "Created intro.txt",
	}
	if err := store.Log(context.Background(), entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" {
		t.Errorf("ID = %q, want %q", got.ID, "http-1")
	}
	if got.File != "intro.txt" {
		t.Errorf("File = %q, want %q", got.File, "intro.txt")
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPQueryEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, file := range []string{"a.txt", "b.txt", "a.txt"} {
		if err := store.Log(ctx, Entry{Action: ActionNoteUpdated, File: file}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?file=a.txt&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for a.txt, got %d", len(entries))
	}
}
