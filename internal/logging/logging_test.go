package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("debug", "json", &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = Setup("info", "text", os.Stderr) })

	logrus.WithField("stage", "score").Debug("copy produced")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["stage"] != "score" || entry["msg"] != "copy produced" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetupRejectsUnknown(t *testing.T) {
	testCases := []struct {
		name   string
		level  string
		format string
	}{
		{"level", "loud", "text"},
		{"format", "info", "xml"},
	}
	for _, tc := range testCases {
		if err := Setup(tc.level, tc.format, nil); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	_ = Setup("info", "text", nil)
}
