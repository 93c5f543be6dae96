// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN were emitted:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("messages at or above WARN were dropped:\n%s", out)
	}
}

func TestFormatIncludesPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("solver")
	logger.SetWriter(&buf)

	logger.Info("position %0.3f", 1.5)

	out := buf.String()
	if !strings.Contains(out, "[INFO ]") {
		t.Errorf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "solver: position 1.500") {
		t.Errorf("missing prefix or formatted message: %q", out)
	}
}

func TestStructuredFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)

	logger.WithFields(Fields{"zeta": 1, "alpha": "x"}).Info("update")

	out := buf.String()
	if !strings.Contains(out, "{alpha=x, zeta=1}") {
		t.Errorf("fields not sorted or missing: %q", out)
	}
}

func TestWithErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)

	logger.WithError(errTest{}).Error("failed")
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("error field missing: %q", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithPrefixSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New("root")
	logger.SetWriter(&buf)
	logger.SetLevel(DEBUG)

	child := logger.WithPrefix("child")
	child.Debug("hello")
	if !strings.Contains(buf.String(), "child: hello") {
		t.Errorf("child logger output: %q", buf.String())
	}
}
