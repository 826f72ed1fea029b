package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(io.Discard) })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestWithError(t *testing.T) {
	buf := capture(t)

	Component("coach").WithError(errors.New("boom")).Error("backend call failed")
	got := lastLine(t, buf)
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, "coach", got["component"])
	assert.Equal(t, "backend call failed", got["msg"])

	// entries derived from a component log errors under the same key
	Component("api").WithField("handler", "grade").WithError(errors.New("disk full")).Warn("save failed")
	got = lastLine(t, buf)
	assert.Equal(t, "disk full", got["error"])
	assert.Equal(t, "grade", got["handler"])
}

func TestWithError_Nil(t *testing.T) {
	l := Component("coach")
	assert.Same(t, l.Entry, l.WithError(nil))
}

func TestSetOutput_SwapsWriters(t *testing.T) {
	buf := capture(t)
	New().Info("first")
	assert.Contains(t, buf.String(), `"msg":"first"`)

	var other bytes.Buffer
	SetOutput(&other)
	New().Info("second")
	assert.NotContains(t, buf.String(), "second")
	assert.Contains(t, other.String(), `"msg":"second"`)
}

func TestWithRequestID(t *testing.T) {
	buf := capture(t)
	r := httptest.NewRequest("POST", "/coach", nil)
	New().WithRequestID(r, "req-1").Info("coach decision")

	got := lastLine(t, buf)
	assert.Equal(t, "req-1", got["req_id"])
	assert.Equal(t, "POST", got["method"])
	assert.Equal(t, "/coach", got["path"])
}

func TestRequestID(t *testing.T) {
	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set(RequestIDHeader, "  abc  ")
	assert.Equal(t, "abc", RequestID(r))

	r.Header.Del(RequestIDHeader)
	assert.Len(t, RequestID(r), 36)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel(" DEBUG ").String())
	assert.Equal(t, "warning", parseLevel("warn").String())
	assert.Equal(t, "info", parseLevel("verbose").String())
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 10))
	assert.Equal(t, "abc...", Clip("abcdef", 3))
	assert.Equal(t, "héé...", Clip("héééé", 3))
	assert.Equal(t, "keep", Clip("keep", 0))
}
