package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"bakehouse/internal/auth"
	"bakehouse/internal/backup"
	"bakehouse/internal/bakery"
	"bakehouse/internal/config"
	appdb "bakehouse/internal/db"
	"bakehouse/internal/delivery"
)

type testEnv struct {
	h        *Handlers
	sessions *scs.SessionManager
	db       *gorm.DB
	bakery   *bakery.Bakery
	users    *auth.Store
	backups  *backup.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bakery.db")
	db, err := appdb.Configure(config.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("configure database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	b := bakery.New(db, bakery.Options{})
	users := auth.NewStore(db)
	backups := backup.NewManager(backup.Config{
		DBPath:    dbPath,
		Dir:       filepath.Join(dir, "backups"),
		StatePath: filepath.Join(dir, "backup_state.json"),
	}, backup.VacuumInto(db))
	sessions := scs.New()

	h := New(Dependencies{
		Sessions: sessions,
		Database: db,
		Bakery:   b,
		Users:    users,
		Backups:  backups,
	})
	return &testEnv{h: h, sessions: sessions, db: db, bakery: b, users: users, backups: backups}
}

func (e *testEnv) createUser(t *testing.T, username, password, role string) {
	t.Helper()
	if _, err := e.users.CreateUser(context.Background(), username, password, role); err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
}

// serve runs handler inside the session middleware.
func (e *testEnv) serve(handler http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.sessions.LoadAndSave(handler).ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := e.serve(http.HandlerFunc(e.h.Login), req, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login as %q: status %d, body %s", username, rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == e.sessions.Cookie.Name {
			return c
		}
	}
	t.Fatalf("login as %q set no session cookie", username)
	return nil
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{bakery.ErrDuplicateName, http.StatusConflict},
		{auth.ErrDuplicateUsername, http.StatusConflict},
		{bakery.ErrInvalidAmount, http.StatusBadRequest},
		{bakery.ErrEmptyRecipe, http.StatusBadRequest},
		{bakery.ErrUnknownWindow, http.StatusBadRequest},
		{delivery.ErrUnsupportedFormat, http.StatusBadRequest},
		{backup.ErrInvalidBackup, http.StatusBadRequest},
		{bakery.ErrNotFound, http.StatusNotFound},
		{bakery.ErrRecipeNotFound, http.StatusNotFound},
		{backup.ErrNotFound, http.StatusNotFound},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{bakery.ErrStorage, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsHTMX(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Fatal("expected false when no HTMX headers present")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Fatal("expected true when HX-Request header present")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	rr := httptest.NewRecorder()
	e.h.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}
	resp := decodeBody[healthResponse](t, rr)
	if resp.Status != "ok" || resp.Database != "ok" || resp.Time.IsZero() {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	t.Parallel()
	h := New(Dependencies{})

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if resp := decodeBody[healthResponse](t, rr); resp.Database != "unconfigured" {
		t.Fatalf("database = %q, want unconfigured", resp.Database)
	}
}

func TestPathIDRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "0", "-1", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", raw)
		if _, err := pathID(req); !errors.Is(err, errBadRequest) {
			t.Fatalf("pathID(%q) error = %v", raw, err)
		}
	}
}

