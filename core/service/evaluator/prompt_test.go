package evaluator

import (
	"os"
	"path/filepath"
	"testing"
)

func writePromptFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp prompt file: %v", err)
	}
	return path
}

func TestLoadPromptFile_SplitsOnMarkers(t *testing.T) {
	path := writePromptFile(t, "<<SYS>>\nbe terse\n<<USER>>\nscore: {{title}}")
	tpl, err := loadPromptFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.system != "be terse" {
		t.Fatalf("got system %q", tpl.system)
	}
	if tpl.user != "score: {{title}}" {
		t.Fatalf("got user %q", tpl.user)
	}
}

func TestLoadPromptFile_MissingMarkerIsError(t *testing.T) {
	path := writePromptFile(t, "no markers here")
	if _, err := loadPromptFile(path); err == nil {
		t.Fatal("expected an error for a prompt file missing both markers")
	}
}

func TestLoadPromptFile_EmptyHalfIsError(t *testing.T) {
	path := writePromptFile(t, "<<SYS>>\n<<USER>>\nuser text")
	if _, err := loadPromptFile(path); err == nil {
		t.Fatal("expected an error for an empty system section")
	}
}

func TestFillPrompt_SubstitutesAllKeys(t *testing.T) {
	got := fillPrompt("{{a}} and {{b}}", map[string]string{"a": "1", "b": "2"})
	if got != "1 and 2" {
		t.Fatalf("got %q", got)
	}
}
