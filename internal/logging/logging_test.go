package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/internal/logging"
)

func TestLevels(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for level, want := range cases {
		if got := logging.New(level, "text").GetLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", level, want, got)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput("info", "json", &buf)
	log.WithField("form", "form1").Info("form submitted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if entry["form"] != "form1" || entry["msg"] != "form submitted" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestTextFormatFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput("warn", "text", &buf)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}
