package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewSlog_ContextFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info", Command: "serve"}, &buf)
	log := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithFile(ctx, "finca.dxf")
	log.DebugContext(ctx, "hidden")
	log.With("component", "test").WarnContext(ctx, "converted", "parcels", 3, "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), buf.String())
	}
	got := lines[0]
	for k, want := range map[string]any{
		"msg":        "converted",
		"level":      "warn",
		"request_id": "req-1",
		"file":       "finca.dxf",
		"command":    "serve",
		"component":  "test",
		"parcels":    float64(3),
		"err":        "boom",
	} {
		if got[k] != want {
			t.Fatalf("%s=%v want %v (line %v)", k, got[k], want, got)
		}
	}
	if _, ok := got["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", got)
	}
}

func TestWithRequestID_GeneratesID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestID(ctx) == "" {
		t.Fatal("expected a generated request id")
	}
	if RequestID(context.Background()) != "" {
		t.Fatal("expected no request id on a bare context")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestFromContext_NilParent(t *testing.T) {
	l := FromContext(WithComponent(context.Background(), "x"), nil)
	if l == nil {
		t.Fatal("nil logger")
	}
	l.Info().Msg("discarded")
}
