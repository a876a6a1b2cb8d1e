package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("sampled %d frames", 12)
	if got != "sampled 12 frames" {
		t.Errorf("Logf wrote %q", got)
	}

	// nil installs a no-op that must not reach the previous sink
	got = ""
	SetLogger(nil)
	Logf("dropped")
	if got != "" {
		t.Errorf("no-op logger forwarded %q", got)
	}
}

func TestSetDebugLogger(t *testing.T) {
	original := Debugf
	defer func() { Debugf = original }()

	// Default is silent and must not panic.
	Debugf("frame %d", 1)

	calls := 0
	SetDebugLogger(func(string, ...interface{}) { calls++ })
	Debugf("frame %d", 2)
	Debugf("frame %d", 3)
	if calls != 2 {
		t.Errorf("debug logger called %d times, want 2", calls)
	}

	SetDebugLogger(nil)
	Debugf("frame %d", 4)
	if calls != 2 {
		t.Errorf("no-op debug logger forwarded a call")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
	Logf("test message: %s", "value")
}
