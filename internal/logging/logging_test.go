package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   Level
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"TRACE", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"ERROR", LevelError, true},
		{"off", LevelNone, true},
		{" none ", LevelNone, true},
		{"chatty", LevelWarn, false},
		{"", LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLogger_TextFormatSortsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatText, Output: &buf})

	logger.Info("resolved", Fields{"zeta": 1, "alpha": "x"})

	out := buf.String()
	if !strings.Contains(out, "INFO: resolved alpha=x zeta=1") {
		t.Errorf("unexpected text line: %q", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	logger.Error("load failed", errors.New("boom"), Fields{"path": "buckets/list"})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Level != "ERROR" || entry.Message != "load failed" || entry.Error != "boom" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["path"] != "buckets/list" {
		t.Errorf("Fields[path] = %v", entry.Fields["path"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn leaked: %q", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message missing")
	}

	logger.SetLevel(LevelNone)
	buf.Reset()
	logger.Error("nothing", nil)
	if buf.Len() != 0 {
		t.Error("LevelNone should drop everything")
	}
}

func TestLogger_WithSharesSink(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelError, Format: FormatJSON, Output: &buf})
	child := logger.With(Fields{"command": "ls"})

	logger.SetLevel(LevelDebug)
	child.Info("invoking", Fields{"extra": true})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Fields["command"] != "ls" || entry.Fields["extra"] != true {
		t.Errorf("fields = %v", entry.Fields)
	}
}

func TestSetupWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tigris.log")
	prev := DefaultLogger
	DefaultLogger = New(Options{Output: io.Discard})
	defer func() { DefaultLogger = prev }()

	closer, err := Setup(LevelDebug, FormatText, path)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	DefaultLogger.SetOutput(mustFileOnly(t, closer))
	Debug("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}

func mustFileOnly(t *testing.T, c io.Closer) io.Writer {
	t.Helper()
	w, ok := c.(io.Writer)
	if !ok {
		t.Fatalf("closer %T is not a writer", c)
	}
	return w
}

func TestRedaction(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Tigris-Namespace", "org_1")
	got := redactHeaders(h)
	if got["Authorization"] != "[REDACTED]" || got["X-Tigris-Namespace"] != "org_1" {
		t.Errorf("redactHeaders() = %v", got)
	}

	form := url.Values{"refresh_token": {"r"}, "grant_type": {"refresh_token"}, "client_id": {"c"}}
	f := redactForm(form)
	if f["refresh_token"] != "[REDACTED]" || f["client_id"] != "c" || f["grant_type"] != "refresh_token" {
		t.Errorf("redactForm() = %v", f)
	}

	nested := redactValue(map[string]interface{}{
		"user": map[string]interface{}{"accessToken": "a", "name": "n"},
	}).(map[string]interface{})
	user := nested["user"].(map[string]interface{})
	if user["accessToken"] != "[REDACTED]" || user["name"] != "n" {
		t.Errorf("redactValue() = %v", nested)
	}
}

func TestTransportLogsAndPreservesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":"` + string(body) + `","access_token":"secret"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Output: &buf})
	client := &http.Client{Transport: NewTransport(nil, logger), Timeout: 5 * time.Second}

	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"echo":"a=b"`) {
		t.Errorf("body was not preserved: %s", body)
	}
	if strings.Contains(buf.String(), "secret") {
		t.Errorf("token leaked into log: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "http response") {
		t.Errorf("response not logged: %s", buf.String())
	}
}
