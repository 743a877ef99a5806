package composer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsroom/core/domain"
)

// writeArtifact persists one rendered digest body to
// <outputDir>/pipeline-<id>/<ts>.<ext> and returns the path written (§6
// "Artifact layout"). Grounded on pipeline_runner.py's run_writer, which
// builds the same out_dir/f"{ts}.{ext}" path before invoking a writer
// script.
func writeArtifact(outputDir string, pipelineID int64, ts time.Time, ext, body string) (string, error) {
	dir := filepath.Join(outputDir, fmt.Sprintf("pipeline-%d", pipelineID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, domain.Timestamp(ts)+"."+ext)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}
