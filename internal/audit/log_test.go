package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"tutorlane.org/internal/auth"
	"tutorlane.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithClaims(ctx, &auth.Claims{
		Role:             auth.RoleStudent,
		Email:            "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	})

	if err := LogEvent(ctx, "auth.login", map[string]any{"result": "ok"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "auth.login" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["result"] != "ok" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventFingerprintsCredential(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	const rawToken = "header.payload.signature"
	ctx := auth.ContextWithToken(context.Background(), rawToken)
	if err := LogEvent(ctx, "auth.session.error", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if strings.Contains(line, rawToken) {
		t.Fatalf("raw credential leaked into audit log: %s", line)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	fp, _ := entry["credential_fp"].(string)
	if len(fp) != 12 {
		t.Fatalf("expected 12-char fingerprint, got %q", fp)
	}
	if fp != credentialFingerprint(rawToken) {
		t.Fatalf("fingerprint not stable: %q", fp)
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
