package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"error": slog.LevelError,
		"":      slog.LevelWarn,
		"bogus": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// Not parallel: Setup replaces the process-wide default logger.
func TestSetupJSONAndReportFailure(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	flush, err := Setup(buf, Options{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer flush()

	ReportFailure(context.Background(), "delete routine", "500", `{"message":"boom"}`)
	out := buf.String()
	if !strings.Contains(out, `"op":"delete routine"`) || !strings.Contains(out, `"status":"500"`) {
		t.Fatalf("expected structured failure log, got %s", out)
	}
}
