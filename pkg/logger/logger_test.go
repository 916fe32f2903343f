package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	buf.Reset()
	return record
}

func TestSensitiveAttributesAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.Info("auth: login", "username", "ana", "password", "segredo123", "Refresh_Token", "abc")
	record := decodeLine(t, &buf)
	if record["username"] != "ana" {
		t.Fatalf("expected username kept, got %v", record["username"])
	}
	if record["password"] != redacted || record["Refresh_Token"] != redacted {
		t.Fatalf("expected secrets redacted, got %v", record)
	}
}

func TestCriticalLevelAndErrorSplit(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json").With("request_id", "r1")

	log.Critical("app: init failed")
	if record := decodeLine(t, &buf); record["level"] != "CRITICAL" || record["request_id"] != "r1" {
		t.Fatalf("unexpected critical record %v", record)
	}

	log.BusinessError("families: not found", errors.New("family not found"), "family_id", 4)
	if record := decodeLine(t, &buf); record["level"] != "WARN" || record["err"] != "family not found" {
		t.Fatalf("unexpected business record %v", record)
	}

	log.InternalError("families: load", errors.New("connection reset"))
	if record := decodeLine(t, &buf); record["level"] != "ERROR" {
		t.Fatalf("unexpected internal record %v", record)
	}

	log.InternalError("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nil error to log nothing, got %q", buf.String())
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if parseLevel("", "development") != slog.LevelDebug || parseLevel("", "production") != slog.LevelInfo {
		t.Fatalf("unexpected default levels")
	}
	if parseLevel(" FATAL ", "production") != LevelCritical {
		t.Fatalf("expected fatal to map to critical")
	}
	if parseFormat("TEXT") != "text" || parseFormat("yaml") != "json" {
		t.Fatalf("unexpected formats")
	}

	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, "text").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}
