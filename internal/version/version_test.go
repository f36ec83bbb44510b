package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldCommit, oldBuilt := Commit, BuildTime
	defer func() { Commit, BuildTime = oldCommit, oldBuilt }()

	Commit = "0123456789abcdef"
	BuildTime = "2024-06-01T10:00:00Z"

	got := String()
	want := "deck dev (commit: 0123456, built: 2024-06-01T10:00:00Z)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit(abc) = %q", got)
	}
	if got := String(); !strings.HasPrefix(got, "deck dev") {
		t.Errorf("String() = %q", got)
	}
}
