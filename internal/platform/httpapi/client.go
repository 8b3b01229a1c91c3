package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	xsrfCookieName = "XSRF-TOKEN"
	xsrfHeaderName = "X-XSRF-TOKEN"
	requestIDName  = "X-Request-Id"
	csrfCookiePath = "/sanctum/csrf-cookie"
)

// Status is an HTTP status code, or StatusTransportError when no response
// was received at all.
type Status int

const StatusTransportError Status = -1

func (s Status) String() string {
	if s == StatusTransportError {
		return "error"
	}
	return strconv.Itoa(int(s))
}

var headerAllowList = []string{
	"content-type",
	"cache-control",
	"date",
	"access-control-allow-origin",
	"access-control-allow-credentials",
}

// Result is the normalized outcome of every request. Transport failures are
// folded into it so callers always branch on Status.
type Result struct {
	Status  Status
	Headers map[string]string
	Body    string
}

func (r Result) Is(code int) bool {
	return r.Status == Status(code)
}

type Options struct {
	// XSRF attaches X-XSRF-TOKEN read from the XSRF-TOKEN cookie.
	XSRF bool
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func New(baseURL string, jar http.CookieJar) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: parsed,
		http:    &http.Client{Jar: jar},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CSRFCookie asks the API to issue a fresh XSRF-TOKEN cookie.
func (c *Client) CSRFCookie(ctx context.Context) Result {
	return c.Do(ctx, http.MethodGet, csrfCookiePath, nil, Options{})
}

func (c *Client) Do(ctx context.Context, method, path string, payload any, opts Options) Result {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return transportFailure(err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDName, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.XSRF {
		if token := c.xsrfToken(); token != "" {
			req.Header.Set(xsrfHeaderName, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}
	return Result{
		Status:  Status(resp.StatusCode),
		Headers: pickHeaders(resp.Header),
		Body:    formatBody(text),
	}
}

func (c *Client) xsrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name != xsrfCookieName {
			continue
		}
		decoded, err := url.PathUnescape(cookie.Value)
		if err != nil {
			return cookie.Value
		}
		return decoded
	}
	return ""
}

func transportFailure(err error) Result {
	return Result{Status: StatusTransportError, Headers: map[string]string{}, Body: err.Error()}
}

func pickHeaders(h http.Header) map[string]string {
	out := map[string]string{}
	for _, key := range headerAllowList {
		if value := h.Get(key); value != "" {
			out[key] = value
		}
	}
	return out
}

func formatBody(raw []byte) string {
	if !json.Valid(raw) {
		return string(raw)
	}
	buf := bytes.Buffer{}
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
