package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesJSONAtLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := New(Options{Level: "warn", Env: "production", Output: &buf})

	log.Info().Msg("dropped")
	billing := Component(log, "billing")
	billing.Warn().Int64("user_id", 7).Msg("kept")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"message":   "kept",
		"service":   "netbar",
		"env":       "production",
		"component": "billing",
		"user_id":   float64(7),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Fatalf("%s = %v, want %v (entry %v)", k, entry[k], v, entry)
		}
	}
}

func TestNew_OmitsEmptyEnv(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := New(Options{Output: &buf})
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := entry["env"]; ok {
		t.Fatalf("unexpected env field: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
