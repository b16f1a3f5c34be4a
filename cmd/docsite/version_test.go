package main

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
	if getCommit() == "" {
		t.Error("getCommit() returned empty string")
	}
	if len(getCommit()) > 7 {
		t.Errorf("expected a short commit hash, got %q", getCommit())
	}
	if getDate() == "" {
		t.Error("getDate() returned empty string")
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("outputs version info", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "version")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"docsite version", "commit:", "built:", "go:"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("short prints only the version", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "version", "--short")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != getVersion()+"\n" {
			t.Errorf("expected %q, got %q", getVersion()+"\n", out)
		}
	})
}
