package sysutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger_WritesJSONAndFile(t *testing.T) {
	origLogger, origLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	})

	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	c, err := SetupLogger(LogOptions{Level: "debug", File: file, Out: &buf})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	log.Debug().Str("k", "v").Msg("hello")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %v; want debug", zerolog.GlobalLevel())
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("stdout not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "hello" || line["k"] != "v" || line["time"] == nil {
		t.Fatalf("unexpected line %v", line)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) {
		t.Fatalf("file missing line: %q", data)
	}
}

func TestSetupLogger_Pretty(t *testing.T) {
	origLogger := log.Logger
	t.Cleanup(func() { log.Logger = origLogger })

	var buf bytes.Buffer
	c, err := SetupLogger(LogOptions{Level: "info", Pretty: true, Out: &buf})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	defer c.Close()
	log.Info().Msg("pretty")
	if !strings.Contains(buf.String(), "pretty") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	// no args -> ""
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	// only empties -> ""
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// picks first non-empty (preserves original spacing)
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	// first already non-empty
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}
