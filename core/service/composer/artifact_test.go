package composer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteArtifact_PathShapeAndContent(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 7, 29, 10, 30, 0, 0, time.UTC)

	path, err := writeArtifact(dir, 7, ts, "html", "<p>digest</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "pipeline-7", "20260729-103000.html")
	if path != want {
		t.Fatalf("got path %q, want %q", path, want)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected artifact file to exist: %v", err)
	}
	if string(body) != "<p>digest</p>" {
		t.Fatalf("unexpected artifact content: %q", body)
	}
}

func TestWriteArtifact_CreatesNestedOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist", "yet")
	path, err := writeArtifact(dir, 1, time.Now(), "md", "body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected nested directories created, got: %v", err)
	}
}
