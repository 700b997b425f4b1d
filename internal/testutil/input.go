package testutil

import (
	"io"
	"strings"
	"testing"
)

// Input joins lines into what a user would type at the calculator prompt,
// one line per entry.
func Input(lines ...string) io.Reader {
	if len(lines) == 0 {
		return strings.NewReader("")
	}
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// AssertContains fails the test when out does not contain every want.
func AssertContains(t testing.TB, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("expected output to contain %q, got:\n%s", w, out)
		}
	}
}
