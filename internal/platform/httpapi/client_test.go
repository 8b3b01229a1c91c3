package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	apperrors "routinectl/internal/platform/errors"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client, *[]http.Header) {
	t.Helper()
	seen := &[]http.Header{}
	router := mux.NewRouter()
	router.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok%3Dabc", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	router.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		*seen = append(*seen, r.Header.Clone())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Secret", "hidden")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":7}}`))
	})
	router.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client, err := New(server.URL+"/", jar)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return server, client, seen
}

func TestDoAttachesXSRFOnlyWhenRequested(t *testing.T) {
	t.Parallel()
	_, client, seen := newTestServer(t)
	ctx := context.Background()

	if res := client.CSRFCookie(ctx); !res.Is(http.StatusNoContent) {
		t.Fatalf("csrf cookie status: %s", res.Status)
	}
	client.Do(ctx, http.MethodPost, "/echo", map[string]string{"a": "b"}, Options{})
	client.Do(ctx, http.MethodPost, "/echo", map[string]string{"a": "b"}, Options{XSRF: true})

	if len(*seen) != 2 {
		t.Fatalf("expected two requests, got %d", len(*seen))
	}
	if got := (*seen)[0].Get("X-XSRF-TOKEN"); got != "" {
		t.Fatalf("xsrf header must not be sent by default, got %q", got)
	}
	if got := (*seen)[1].Get("X-XSRF-TOKEN"); got != "tok=abc" {
		t.Fatalf("expected decoded xsrf token, got %q", got)
	}
	for _, h := range *seen {
		if h.Get("Accept") != "application/json" || h.Get("Content-Type") != "application/json" {
			t.Fatalf("missing json headers: %v", h)
		}
		if h.Get("X-Request-Id") == "" {
			t.Fatalf("missing request id")
		}
	}
}

func TestDoNormalizesResult(t *testing.T) {
	t.Parallel()
	_, client, seen := newTestServer(t)

	res := client.Do(context.Background(), http.MethodGet, "/echo", nil, Options{})
	if !res.Is(http.StatusCreated) {
		t.Fatalf("expected 201, got %s", res.Status)
	}
	if (*seen)[0].Get("Content-Type") != "" {
		t.Fatalf("content type must be omitted without a body")
	}
	if res.Headers["content-type"] != "application/json" || res.Headers["cache-control"] != "no-cache" {
		t.Fatalf("allow-listed headers missing: %v", res.Headers)
	}
	if _, ok := res.Headers["x-secret"]; ok {
		t.Fatalf("non allow-listed header leaked: %v", res.Headers)
	}
	want := "{\n  \"data\": {\n    \"id\": 7\n  }\n}"
	if res.Body != want {
		t.Fatalf("expected pretty body %q, got %q", want, res.Body)
	}

	plain := client.Do(context.Background(), http.MethodGet, "/plain", nil, Options{})
	if plain.Body != "boom" || !plain.Is(http.StatusInternalServerError) {
		t.Fatalf("expected raw body, got %+v", plain)
	}
}

func TestDoFoldsTransportFailure(t *testing.T) {
	t.Parallel()
	server, client, _ := newTestServer(t)
	server.Close()

	res := client.Do(context.Background(), http.MethodGet, "/echo", nil, Options{})
	if res.Status != StatusTransportError || res.Status.String() != "error" {
		t.Fatalf("expected transport sentinel, got %v", res.Status)
	}
	if res.Body == "" || len(res.Headers) != 0 {
		t.Fatalf("expected message body and no headers, got %+v", res)
	}
}

func TestDecodeData(t *testing.T) {
	t.Parallel()
	type item struct {
		ID int64 `json:"id"`
	}
	got, err := DecodeData[item](Result{Status: 200, Body: `{"data":{"id":3}}`})
	if err != nil || got.ID != 3 {
		t.Fatalf("decode data: %+v %v", got, err)
	}
	if _, err := DecodeData[item](Result{Status: 200, Body: `{"other":1}`}); !errors.Is(err, apperrors.ErrMalformedPayload) {
		t.Fatalf("missing data must be malformed, got %v", err)
	}
	if _, err := DecodeData[item](Result{Status: 200, Body: `not json`}); !errors.Is(err, apperrors.ErrMalformedPayload) {
		t.Fatalf("invalid json must be malformed, got %v", err)
	}
}

func TestFailureClassification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cases := []struct {
		name    string
		result  Result
		kind    apperrors.Kind
		message string
	}{
		{"transport", Result{Status: StatusTransportError, Body: "dial tcp: refused"}, apperrors.KindTransport, "dial tcp: refused"},
		{"unauthenticated", Result{Status: 401, Body: `{"message":"Unauthenticated."}`}, apperrors.KindUnauthenticated, "unauthenticated"},
		{"validation fields", Result{Status: 422, Body: `{"message":"bad","errors":{"title":["title required"],"tasks":["too many tasks"]}}`}, apperrors.KindValidation, "too many tasks\ntitle required"},
		{"validation message", Result{Status: 422, Body: `{"message":"bad input"}`}, apperrors.KindValidation, "bad input"},
		{"forbidden", Result{Status: 403, Body: `{"message":"plan limit reached"}`}, apperrors.KindForbidden, "plan limit reached"},
		{"generic", Result{Status: 500, Body: "stack trace"}, apperrors.KindGeneric, "operation failed"},
	}
	for _, tc := range cases {
		err := tc.result.Failure(ctx, "test")
		if err.Kind != tc.kind || err.Message != tc.message {
			t.Fatalf("%s: expected %s/%q, got %s/%q", tc.name, tc.kind, tc.message, err.Kind, err.Message)
		}
	}
	if !errors.Is(Result{Status: 401}.Failure(ctx, "me"), apperrors.ErrUnauthenticated) {
		t.Fatalf("401 failure must match ErrUnauthenticated")
	}
	if got := Message(`{"message":"Invalid credentials"}`); got != "Invalid credentials" {
		t.Fatalf("message: %q", got)
	}
	if got := Message("plain"); !strings.Contains(got, "plain") {
		t.Fatalf("message fallback: %q", got)
	}
}
