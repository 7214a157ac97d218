package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveEnsemblePath(t *testing.T) {
	t.Run("explicit flag wins", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "mine.yaml")
		if err := os.WriteFile(p, []byte("models: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(envSeqgenEnsemble, filepath.Join(dir, "other.yaml"))

		got, err := resolveEnsemblePath(p)
		if err != nil {
			t.Fatalf("resolveEnsemblePath returned error: %v", err)
		}
		if got != p {
			t.Fatalf("unexpected path: got %q want %q", got, p)
		}
	})

	t.Run("env fallback and directory lookup", func(t *testing.T) {
		dir := t.TempDir()
		want := filepath.Join(dir, "ensemble.yaml")
		if err := os.WriteFile(want, []byte("models: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(envSeqgenEnsemble, dir)

		got, err := resolveEnsemblePath("")
		if err != nil {
			t.Fatalf("resolveEnsemblePath returned error: %v", err)
		}
		if got != want {
			t.Fatalf("unexpected path: got %q want %q", got, want)
		}
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv(envSeqgenEnsemble, "")
		_, err := resolveEnsemblePath("  ")
		if err == nil || !strings.Contains(err.Error(), envSeqgenEnsemble) {
			t.Fatalf("expected error naming %s, got %v", envSeqgenEnsemble, err)
		}
	})
}

func TestResolveOutPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := resolveOutPath(filepath.Join(dir, "train.txt"), "")
	if err != nil {
		t.Fatalf("resolveOutPath returned error: %v", err)
	}
	if want := filepath.Join(dir, "train.vocab.json"); got != want {
		t.Fatalf("unexpected output path: got %q want %q", got, want)
	}

	nested := filepath.Join(dir, "a", "b", "v.json")
	got, err = resolveOutPath("-", nested)
	if err != nil {
		t.Fatalf("resolveOutPath returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected output directory to exist: %v", err)
	}

	if _, err := resolveOutPath("-", ""); err == nil {
		t.Fatal("expected error for stdin corpus without --out")
	}
}
