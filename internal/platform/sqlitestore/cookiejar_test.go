package sqlitestore

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

func TestCookieJarSurvivesReopen(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "routinectl.db")
	u, _ := url.Parse("http://api.example.test:8001/login")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	jar, err := NewCookieJar(db)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	jar.SetCookies(u, []*http.Cookie{
		{Name: "laravel_session", Value: "abc", Path: "/", HttpOnly: true},
		{Name: "XSRF-TOKEN", Value: "tok%3D", Path: "/", Expires: time.Now().Add(time.Hour)},
	})
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	jar2, err := NewCookieJar(db2)
	if err != nil {
		t.Fatalf("reload jar: %v", err)
	}
	got := map[string]string{}
	for _, c := range jar2.Cookies(u) {
		got[c.Name] = c.Value
	}
	if got["laravel_session"] != "abc" || got["XSRF-TOKEN"] != "tok%3D" {
		t.Fatalf("expected both cookies after reload, got %v", got)
	}
}

func TestCookieJarDropsExpiredAndDeleted(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "routinectl.db")
	u, _ := url.Parse("http://api.example.test/")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	jar, err := NewCookieJar(db)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: "laravel_session", Value: "abc", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "laravel_session", Value: "", Path: "/", MaxAge: -1}})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cookies`).Scan(&count); err != nil {
		t.Fatalf("count cookies: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected deleted cookie to be removed from disk, got %d rows", count)
	}
	if len(jar.Cookies(u)) != 0 {
		t.Fatalf("expected no cookies in memory")
	}
}

func TestCookieJarClear(t *testing.T) {
	t.Parallel()
	db, err := Open(filepath.Join(t.TempDir(), "routinectl.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	jar, err := NewCookieJar(db)
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	u, _ := url.Parse("http://api.example.test/")
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1", Path: "/"}})
	if err := jar.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(jar.Cookies(u)) != 0 {
		t.Fatalf("expected empty jar after clear")
	}
}
