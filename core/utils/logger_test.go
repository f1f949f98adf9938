package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions("info", "json", &buf)
	l.Printf("REQ %s %s", "GET", "/api/tickets")
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "REQ GET /api/tickets" {
		t.Fatalf("unexpected msg %v", rec["msg"])
	}
	if rec["level"] != "INFO" {
		t.Fatalf("unexpected level %v", rec["level"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions("warn", "text", &buf)
	l.Printf("hidden")
	l.Debugf("hidden")
	l.Warnf("visible %d", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info/debug lines should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible 1") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Printf("no panic")
	l.Errorf("no panic")
	if l.With("k", "v") != nil {
		t.Fatalf("expected nil child logger")
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("X", 3*3600))
	c := FixedClock(at)
	if got := c.Now(); !got.Equal(at) || got.Location() != time.UTC {
		t.Fatalf("expected %s in UTC, got %s", at, got)
	}
	var zero Clock
	if zero.Now().IsZero() {
		t.Fatalf("nil clock should fall back to wall time")
	}
}

func TestLoggerWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions("info", "json", &buf).With("component", "mailer")
	l.Printf("mail sent")
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if rec["component"] != "mailer" || rec["msg"] != "mail sent" {
		t.Fatalf("unexpected record %v", rec)
	}
}
