package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	got, err := Load(Source{Name: "openai api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("   "), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	_, err := Load(Source{Name: "gemini api key", File: path})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("CAREER_TEST_KEY", " env-secret ")

	got, err := Load(Source{Name: "azure api key", Env: "CAREER_TEST_KEY"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "env-secret" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadNotConfigured(t *testing.T) {
	t.Setenv("CAREER_TEST_KEY", "")

	_, err := Load(Source{Name: "azure api key", Env: "CAREER_TEST_KEY"})
	if err == nil || !strings.Contains(err.Error(), "azure api key is not configured") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Load(Source{})
	if err == nil || err.Error() != "secret is not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}
