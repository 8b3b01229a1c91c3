package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	celebrationout "routinectl/internal/modules/celebration/adapter/out"
)

func writeManifests(t *testing.T, dataDir, raw string) {
	t.Helper()
	dir := filepath.Join(dataDir, "plugins")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir plugins: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugins.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write plugins.json: %v", err)
	}
}

func TestFileManifestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty, err := celebrationout.NewFileManifestStore(t.TempDir()).Load(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("missing file must load empty: %v %v", empty, err)
	}

	dataDir := t.TempDir()
	writeManifests(t, dataDir, `[{"name":"confetti","version":"1.0.0","binary":"plugins/confetti/confetti-plugin","sha256":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","enabled":true,"capabilities":["celebrate"]}]`)
	manifests, err := celebrationout.NewFileManifestStore(dataDir).Load(ctx)
	if err != nil || len(manifests) != 1 {
		t.Fatalf("load: %v %v", manifests, err)
	}
	if want := filepath.Join(dataDir, "plugins", "confetti", "confetti-plugin"); manifests[0].Binary != want {
		t.Fatalf("binary = %s, want %s", manifests[0].Binary, want)
	}

	strict := t.TempDir()
	writeManifests(t, strict, `[{"name":"confetti","version":"1.0.0","binary":"/x","sha256":"","enabled":true,"capabilities":["celebrate"],"colour":"red"}]`)
	if _, err := celebrationout.NewFileManifestStore(strict).Load(ctx); err == nil {
		t.Fatalf("unknown fields must be rejected")
	}
}
