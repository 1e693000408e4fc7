package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	Log("seq", "dropped before enable")
	if err := EnableFile(path); err != nil {
		t.Fatal(err)
	}
	defer Disable()

	Log("seq", "channel %d started", 3)
	for range 5 {
		LogEvery(2, "play", "note %s", "C4")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "dropped before enable") {
		t.Error("logged while disabled")
	}
	if !strings.Contains(out, "channel 3 started") {
		t.Errorf("missing line in %q", out)
	}
	if n := strings.Count(out, "note C4 (every 2"); n != 2 {
		t.Errorf("LogEvery wrote %d lines, want 2", n)
	}
	if !Enabled() {
		t.Error("Enabled = false")
	}
}
