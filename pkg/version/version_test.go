package version

import (
	"runtime"
	"testing"
)

func setBuild(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origV, origC, origD })
	Version, GitCommit, BuildDate = v, commit, date
}

func TestGetInfoUsesShortCommit(t *testing.T) {
	setBuild(t, "v1.4.0", "abcdef123456", "2026-01-02")

	info := GetInfo()
	if info.GitCommit != "abcdef1" {
		t.Fatalf("commit = %q", info.GitCommit)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("go version = %q", info.GoVersion)
	}
	want := "v1.4.0 (abcdef1, built 2026-01-02, " + runtime.Version() + ")"
	if got := info.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestShortCommitPassesThroughShortValues(t *testing.T) {
	setBuild(t, "dev", "unknown", "unknown")
	if got := ShortCommit(); got != "unknown" {
		t.Fatalf("ShortCommit() = %q", got)
	}
}
