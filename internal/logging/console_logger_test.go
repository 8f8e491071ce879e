package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func newBufferedLogger(level LogLevel) (*ConsoleLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(ConsoleLoggerConfig{
		Writer:          &buf,
		Level:           level,
		RedactSensitive: true,
	})
	return logger, &buf
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("output contains filtered levels: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("output missing expected levels: %q", out)
	}

	logger.SetLevel(DEBUG)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel(DEBUG) did not take effect")
	}
}

func TestFieldsAreFormatted(t *testing.T) {
	logger, buf := newBufferedLogger(INFO)

	logger.Info("connected", F("userId", "user-1"), F("attempts", 3))

	out := buf.String()
	if !strings.Contains(out, "userId=user-1") {
		t.Errorf("output = %q, want userId field", out)
	}
	if !strings.Contains(out, "attempts=3") {
		t.Errorf("output = %q, want attempts field", out)
	}
}

func TestTraceIDPrefix(t *testing.T) {
	logger, buf := newBufferedLogger(INFO)

	logger.WithTraceID("0123456789abcdef").Info("traced")

	out := buf.String()
	if !strings.Contains(out, "[01234567]") {
		t.Errorf("output = %q, want shortened trace prefix", out)
	}
}

func TestWithContextExtractsTraceID(t *testing.T) {
	logger, buf := newBufferedLogger(INFO)

	ctx := ContextWithTraceID(context.Background(), "ctx-trace-id")
	logger.WithContext(ctx).Info("traced")

	if !strings.Contains(buf.String(), "[ctx-trac]") {
		t.Errorf("output = %q, want trace from context", buf.String())
	}

	// Context without a trace ID leaves the logger unchanged
	buf.Reset()
	logger.WithContext(context.Background()).Info("untraced")
	if strings.Contains(buf.String(), "[") {
		t.Errorf("output = %q, want no trace prefix", buf.String())
	}
}

func TestSensitiveDataRedaction(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		secret string
	}{
		{"bearer token", "request failed: Bearer ya29.a0AfH6SMB", "ya29.a0AfH6SMB"},
		{"refresh token", `persisting refresh_token="1//0eXaMpLe"`, "1//0eXaMpLe"},
		{"access token", "got access_token=ya29.tokenvalue", "ya29.tokenvalue"},
		{"client secret", "config client_secret=GOCSPX-abc123", "GOCSPX-abc123"},
		{"auth header", `Authorization: Bearer xyz`, "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedLogger(INFO)
			logger.Info(tt.msg)

			out := buf.String()
			if strings.Contains(out, tt.secret) {
				t.Errorf("output leaks secret: %q", out)
			}
			if !strings.Contains(out, "[REDACTED]") {
				t.Errorf("output = %q, want redaction marker", out)
			}
		})
	}
}

func TestFieldValuesAreRedacted(t *testing.T) {
	logger, buf := newBufferedLogger(INFO)

	logger.Info("token rotated", F("detail", "refresh_token=1//secretvalue"))

	out := buf.String()
	if strings.Contains(out, "1//secretvalue") {
		t.Errorf("field value leaks secret: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"error", ERROR},
		{"bogus", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
