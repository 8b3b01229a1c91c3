package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// CookieJar is an http.CookieJar that survives process restarts. Matching is
// delegated to net/http/cookiejar; every accepted cookie is mirrored to the
// cookies table and replayed on open.
type CookieJar struct {
	mu    sync.RWMutex
	db    *sql.DB
	inner *cookiejar.Jar
	now   func() time.Time
}

func NewCookieJar(db *sql.DB) (*CookieJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	jar := &CookieJar{db: db, inner: inner, now: time.Now}
	if err := jar.load(context.Background()); err != nil {
		return nil, err
	}
	return jar, nil
}

func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	for _, c := range cookies {
		if err := j.persist(context.Background(), u, c); err != nil {
			slog.Warn("persist cookie", "name", c.Name, "err", err)
		}
	}
}

// Clear drops every stored cookie, in memory and on disk.
func (j *CookieJar) Clear(ctx context.Context) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("reset cookie jar: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	if _, err := j.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func (j *CookieJar) persist(ctx context.Context, u *url.URL, c *http.Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	expires := c.Expires
	if c.MaxAge > 0 {
		expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
	}
	if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(j.now())) {
		_, err := j.db.ExecContext(ctx, `DELETE FROM cookies WHERE host = ? AND path = ? AND name = ?`, u.Hostname(), path, c.Name)
		return err
	}
	var expiresUnix sql.NullInt64
	if !expires.IsZero() {
		expiresUnix = sql.NullInt64{Int64: expires.Unix(), Valid: true}
	}
	const stmt = `
INSERT INTO cookies (host, path, name, scheme, value, domain, secure, http_only, expires_unix)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(host, path, name) DO UPDATE SET
  scheme=excluded.scheme,
  value=excluded.value,
  domain=excluded.domain,
  secure=excluded.secure,
  http_only=excluded.http_only,
  expires_unix=excluded.expires_unix;
`
	_, err := j.db.ExecContext(ctx, stmt, u.Hostname(), path, c.Name, u.Scheme, c.Value, c.Domain, c.Secure, c.HttpOnly, expiresUnix)
	return err
}

func (j *CookieJar) load(ctx context.Context) error {
	rows, err := j.db.QueryContext(ctx, `SELECT host, path, name, scheme, value, domain, secure, http_only, expires_unix FROM cookies`)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()
	now := j.now()
	for rows.Next() {
		var (
			host, path, name, scheme, value string
			domain                          sql.NullString
			secure, httpOnly                bool
			expiresUnix                     sql.NullInt64
		)
		if err := rows.Scan(&host, &path, &name, &scheme, &value, &domain, &secure, &httpOnly, &expiresUnix); err != nil {
			return fmt.Errorf("scan cookie: %w", err)
		}
		cookie := &http.Cookie{Name: name, Value: value, Path: path, Domain: domain.String, Secure: secure, HttpOnly: httpOnly}
		if expiresUnix.Valid {
			cookie.Expires = time.Unix(expiresUnix.Int64, 0)
			if !cookie.Expires.After(now) {
				continue
			}
		}
		j.inner.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: path}, []*http.Cookie{cookie})
	}
	return rows.Err()
}
