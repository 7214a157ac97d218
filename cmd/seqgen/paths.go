package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const envSeqgenEnsemble = "SEQGEN_ENSEMBLE"

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

func resolveEnsemblePath(flag string) (string, error) {
	p := strings.TrimSpace(flag)
	if p == "" {
		p = strings.TrimSpace(os.Getenv(envSeqgenEnsemble))
	}
	if p == "" {
		return "", fmt.Errorf("--ensemble is required unless %s is set", envSeqgenEnsemble)
	}
	st, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if st.IsDir() {
		p = filepath.Join(p, "ensemble.yaml")
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
	}
	return filepath.Clean(p), nil
}

// resolveOutPath returns out, or the corpus path with a .vocab.json suffix
// when out is empty.
func resolveOutPath(corpus, out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		if corpus == "" || corpus == "-" {
			return "", fmt.Errorf("--out is required when reading the corpus from stdin")
		}
		out = strings.TrimSuffix(corpus, filepath.Ext(corpus)) + ".vocab.json"
	}
	out = filepath.Clean(out)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	return out, nil
}
