package domain

import "testing"

func str(s string) *string { return &s }

func TestOutcomeAndDuration(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		h        History
		outcome  Outcome
		minutes  int
		finished bool
	}{
		{"completed", History{Completed: true, StartedAt: str("2026-03-01T09:00:00Z"), FinishedAt: str("2026-03-01T09:25:40Z")}, OutcomeCompleted, 25, true},
		{"aborted", History{StartedAt: str("2026-03-01T09:00:00Z"), FinishedAt: str("2026-03-01T09:03:00Z")}, OutcomeInterrupted, 3, true},
		{"never finished", History{StartedAt: str("2026-03-01T09:00:00Z")}, OutcomeInterrupted, 0, false},
		{"clock skew", History{StartedAt: str("2026-03-01T09:00:00Z"), FinishedAt: str("2026-03-01T08:00:00Z")}, OutcomeInterrupted, 0, true},
	}
	for _, tc := range cases {
		if got := tc.h.Outcome(); got != tc.outcome {
			t.Fatalf("%s: outcome %s, want %s", tc.name, got, tc.outcome)
		}
		minutes, ok := tc.h.DurationMinutes()
		if ok != tc.finished || minutes != tc.minutes {
			t.Fatalf("%s: duration %d/%v, want %d/%v", tc.name, minutes, ok, tc.minutes, tc.finished)
		}
	}
}

func TestPagePath(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"http://localhost:8001/api/histories?page=2&per_page=20": "/api/histories?page=2&per_page=20",
		"https://api.example.com/api/histories":                  "/api/histories",
		"/api/histories?page=3":                                  "/api/histories?page=3",
		"":                                                       "",
	}
	for in, want := range cases {
		if got := PagePath(str(in)); got != want {
			t.Fatalf("PagePath(%q) = %q, want %q", in, got, want)
		}
	}
	if PagePath(nil) != "" {
		t.Fatalf("nil url must map to empty path")
	}
}
