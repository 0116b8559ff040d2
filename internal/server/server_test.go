package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bighelpmob/missionhub/internal/database"
	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/migrations"
)

const (
	testAdminEmail    = "admin@example.org"
	testAdminPassword = "correct horse"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDelivery records queued messages instead of pushing them to Redis.
type fakeDelivery struct {
	mu        sync.Mutex
	bulk      []email.BulkMessage
	templated []email.TemplatedMessage
}

func (d *fakeDelivery) QueueBulk(_ context.Context, msg email.BulkMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bulk = append(d.bulk, msg)
	return nil
}

func (d *fakeDelivery) QueueTemplated(_ context.Context, msg email.TemplatedMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.templated = append(d.templated, msg)
	return nil
}

// setupStore returns a migrated in-memory store with an admin and the
// demo mission. Demo rows, in insertion order:
//
//	participation 1: Ada, captain, approved
//	participation 2: Ben, sidekick, approved, pickup 1
//	participation 3: Cleo, sidekick, awaiting_approval, pickup 2
//	participation 4: Dan, sidekick, created, pickup 2
func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(ctx, db, discardLogger()); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	if _, err := store.EnsureAdmin(ctx, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := SeedDemo(ctx, discardLogger(), store); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	return store
}

// setupRouter builds the full middleware stack around a seeded store.
func setupRouter(t *testing.T) (http.Handler, *SQLiteStore, *fakeDelivery) {
	t.Helper()
	store := setupStore(t)

	roles, err := store.Roles(context.Background())
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	delivery := &fakeDelivery{}

	srv := New(Options{
		Logger:     discardLogger(),
		Store:      store,
		Delivery:   delivery,
		Translator: i18n.New("en"),
		Roles:      roles,
	})
	return srv.Handler(), store, delivery
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/admin/login", AdminLoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == adminCookieName {
			return c
		}
	}
	t.Fatal("login did not set admin_session cookie")
	return nil
}
