package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMaxBodySize = 4096

var sensitiveHeaders = map[string]bool{
	"authorization":        true,
	"cookie":               true,
	"set-cookie":           true,
	"x-amz-security-token": true,
	"x-api-key":            true,
}

// Substrings of body keys whose values are never logged.
var sensitiveKeys = []string{
	"token", "secret", "password", "device_code", "authorization", "accesskey",
}

// HTTPLogger writes request and response summaries at debug level, redacting
// credentials from headers, JSON bodies and form bodies.
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{logger: logger, maxBodySize: defaultMaxBodySize}
}

// SetMaxBodySize sets the maximum body size to log (in bytes)
func (h *HTTPLogger) SetMaxBodySize(size int) {
	h.maxBodySize = size
}

func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	fields := Fields{
		"method":  req.Method,
		"url":     redactURL(req.URL),
		"headers": redactHeaders(req.Header),
	}
	if len(body) > 0 {
		fields["body"] = h.describeBody(req.Header.Get("Content-Type"), body)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("http request", fields)
}

func (h *HTTPLogger) LogResponse(req *http.Request, resp *http.Response, body []byte, took time.Duration) {
	fields := Fields{
		"method":      req.Method,
		"url":         redactURL(req.URL),
		"status":      resp.StatusCode,
		"duration_ms": took.Milliseconds(),
	}
	if len(body) > 0 {
		fields["body"] = h.describeBody(resp.Header.Get("Content-Type"), body)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("http response", fields)
}

func (h *HTTPLogger) LogError(req *http.Request, err error) {
	h.logger.Error("http request failed", err, Fields{
		"method": req.Method,
		"url":    redactURL(req.URL),
	})
}

func (h *HTTPLogger) describeBody(contentType string, body []byte) interface{} {
	switch {
	case strings.Contains(contentType, "application/json") && json.Valid(body):
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			return redactValue(parsed)
		}
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if values, err := url.ParseQuery(string(body)); err == nil {
			return redactForm(values)
		}
	}
	if len(body) > h.maxBodySize {
		return string(body[:h.maxBodySize]) + "...[truncated]"
	}
	return string(body)
}

// Transport wraps an http.RoundTripper so every exchange is logged. Bodies are
// only buffered when the logger is at debug level and the payload is not a
// streamed object transfer.
type Transport struct {
	Base   http.RoundTripper
	Logger *HTTPLogger
}

// NewTransport returns base wrapped with request logging. A nil base uses
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: NewHTTPLogger(logger)}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Logger.logger.Enabled(LevelDebug) {
		return t.Base.RoundTrip(req)
	}

	start := time.Now()
	var reqBody []byte
	if req.Body != nil && bufferable(req.Header.Get("Content-Type")) {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	t.Logger.LogRequest(req, reqBody)

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		t.Logger.LogError(req, err)
		return nil, err
	}

	var respBody []byte
	if bufferable(resp.Header.Get("Content-Type")) {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	t.Logger.LogResponse(req, resp, respBody, time.Since(start))
	return resp, nil
}

func bufferable(contentType string) bool {
	for _, ct := range []string{"json", "xml", "x-www-form-urlencoded", "text/plain"} {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = "[REDACTED]"
		} else if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// redactURL hides presigned query credentials.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.RawQuery == "" {
		return u.String()
	}
	c := *u
	q := c.Query()
	for k := range q {
		if isSensitiveKey(k) || strings.EqualFold(k, "X-Amz-Signature") || strings.EqualFold(k, "X-Amz-Credential") {
			q.Set(k, "[REDACTED]")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func redactForm(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k := range values {
		if isSensitiveKey(k) {
			out[k] = "[REDACTED]"
		} else {
			out[k] = values.Get(k)
		}
	}
	return out
}

func redactValue(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			if isSensitiveKey(k) {
				out[k] = "[REDACTED]"
			} else {
				out[k] = redactValue(val)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redactValue(item)
		}
		return out
	default:
		return data
	}
}
