package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/homestats/internal/errors"
)

func TestMachineMode_DefaultValue(t *testing.T) {
	oldMode := machineMode
	defer func() { machineMode = oldMode }()

	machineMode = false
	assert.False(t, MachineMode())

	machineMode = true
	assert.True(t, MachineMode())
}

func decodeEnvelope(t *testing.T, buf *bytes.Buffer) JSONEnvelope {
	t.Helper()
	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	return env
}

func TestWriteJSONSuccess_BasicData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, map[string]string{"key": "value"}))

	env := decodeEnvelope(t, &buf)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)

	dataMap, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", dataMap["key"])
}

func TestWriteJSONSuccess_NilData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, nil))

	env := decodeEnvelope(t, &buf)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Nil(t, env.Error)
}

func TestWriteJSONError_AllFields(t *testing.T) {
	var buf bytes.Buffer
	details := map[string]string{"service": "pihole"}
	require.NoError(t, WriteJSONError(&buf, ErrCodeAuthFailed, "Pi-hole authentication failed", "Check the password", details))

	env := decodeEnvelope(t, &buf)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeAuthFailed, env.Error.Code)
	assert.Equal(t, "Pi-hole authentication failed", env.Error.Message)
	assert.Equal(t, "Check the password", env.Error.Suggestion)

	detailsMap, ok := env.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pihole", detailsMap["service"])
}

func TestWriteJSONFromError_NilError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONFromError(&buf, nil))

	env := decodeEnvelope(t, &buf)
	assert.False(t, env.Success)
	assert.Nil(t, env.Error)
}

func TestWriteJSONFromError_GenericError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONFromError(&buf, fmt.Errorf("something went wrong")))

	env := decodeEnvelope(t, &buf)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeUnknown, env.Error.Code)
	assert.Equal(t, "something went wrong", env.Error.Message)
}

func TestWriteJSONFromError_WrappedStructuredError(t *testing.T) {
	var buf bytes.Buffer
	inner := errors.NewNotConfigured("Proxmox")
	require.NoError(t, WriteJSONFromError(&buf, fmt.Errorf("snapshot: %w", inner)))

	env := decodeEnvelope(t, &buf)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeNotConfigured, env.Error.Code)
	assert.Equal(t, "Proxmox is not configured", env.Error.Message)
	assert.Contains(t, env.Error.Suggestion, "homestats config edit")
}

func TestErrorToJSON_NilReturnsNil(t *testing.T) {
	assert.Nil(t, ErrorToJSON(nil))
}

func TestErrorToJSON_HTTPStatusDetails(t *testing.T) {
	result := ErrorToJSON(errors.NewHTTPStatus("Sonarr", 503, "http://sonarr/api/v3/calendar"))

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeHTTPError, result.Code)
	details, ok := result.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 503, details["status"])
}

func TestErrorToJSON_AllInternalErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		internalCode string
		message      string
		wantCode     string
	}{
		{"config not found", errors.ErrConfig, "Config file not found", ErrCodeConfigNotFound},
		{"config couldn't find", errors.ErrConfig, "Couldn't find config file", ErrCodeConfigNotFound},
		{"config invalid", errors.ErrConfig, "Config file has invalid syntax", ErrCodeConfigInvalid},
		{"not configured", errors.ErrNotConfigured, "Pi-hole is not configured", ErrCodeNotConfigured},
		{"auth", errors.ErrAuth, "Pi-hole authentication failed", ErrCodeAuthFailed},
		{"transport", errors.ErrTransport, "Proxmox request failed", ErrCodeTransportFailed},
		{"http", errors.ErrHTTP, "Radarr returned HTTP 500", ErrCodeHTTPError},
		{"decode", errors.ErrDecode, "failed to decode states", ErrCodeDecodeFailed},
		{"sync", errors.ErrSync, "Replica unreachable", ErrCodeSyncFailed},
		{"unknown code", "BOGUS", "huh", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ErrorToJSON(errors.New(tt.internalCode, tt.message, "some suggestion"))

			require.NotNil(t, result)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}
