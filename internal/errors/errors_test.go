package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrTransport,
		ErrHTTP,
		ErrDecode,
		ErrAuth,
		ErrNotConfigured,
		ErrSync,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	err := New(ErrConfig, "Invalid settings in .homestats.yaml", "Check the YAML syntax")

	require.NotNil(t, err)
	assert.Equal(t, ErrConfig, err.Code)
	assert.Equal(t, "Invalid settings in .homestats.yaml", err.Message)
	assert.Equal(t, "Check the YAML syntax", err.Suggestion)
	assert.Nil(t, err.Cause)
}

func TestErrorFormat(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapWithCode(cause, ErrTransport, "Pi-hole request failed", "Is the appliance up?")

	out := err.Error()
	assert.True(t, strings.HasPrefix(out, "✗ Pi-hole request failed\n"))
	assert.Contains(t, out, "  connection refused")
	assert.Contains(t, out, "  Is the appliance up?")
}

func TestWrap_DefaultsToTransport(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: timeout"), "request failed")
	assert.Equal(t, ErrTransport, err.Code)
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("root cause")
	err := WrapWithCode(sentinel, ErrSync, "replica write failed", "")

	assert.True(t, errors.Is(err, sentinel))
	assert.Equal(t, sentinel, err.Unwrap())
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewNotConfigured("Plex"), ErrNotConfigured))
	assert.False(t, IsCode(NewNotConfigured("Plex"), ErrAuth))
	assert.False(t, IsCode(nil, ErrAuth))
	assert.False(t, IsCode(errors.New("plain"), ErrAuth))

	wrapped := fmt.Errorf("cycle: %w", NewAuthFailed("Pi-hole", nil))
	assert.True(t, IsCode(wrapped, ErrAuth))
}

func TestHTTPStatus(t *testing.T) {
	err := NewHTTPStatus("Proxmox", 503, "https://pve:8006/api2/json/cluster/resources")

	assert.Equal(t, ErrHTTP, err.Code)
	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, 503, code)

	_, ok = StatusCode(errors.New("no status"))
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	err := Decode("summary", errors.New("unexpected EOF"))
	assert.Equal(t, "failed to decode summary: unexpected EOF", err.Summary())
	assert.Equal(t, "failed to decode summary: unexpected EOF", Summary(fmt.Errorf("x: %w", err)))
	assert.Equal(t, "plain", Summary(errors.New("plain\n")))
	assert.Equal(t, "", Summary(nil))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrDecode, CodeOf(Decode("x", errors.New("y"))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}
