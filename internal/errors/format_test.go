package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	err := New(ErrCodeCheckpointNotFound, "checkpoint 'ckpt-9' not found", nil)

	result := FormatForUser(err, false)

	assert.Contains(t, result, "checkpoint 'ckpt-9' not found")
	assert.Contains(t, result, "[ERR_404_CHECKPOINT_NOT_FOUND]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeDimensionMismatch, "vector has 384 dims, index expects 768", nil).
		WithSuggestion("rebuild the index or re-embed with a matching model")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "rebuild the index")
}

func TestFormatForUser_NonMeridianError(t *testing.T) {
	result := FormatForUser(errors.New("plain failure"), false)
	assert.Equal(t, "plain failure", result)
}

func TestFormatForCLI_WrapsPlainError(t *testing.T) {
	result := FormatForCLI(errors.New("disk write failed"))
	assert.Contains(t, result, "disk write failed")
	assert.Contains(t, result, "ERR_901_INTERNAL")
}

func TestFormatJSON_RoundTrips(t *testing.T) {
	err := New(ErrCodeBudgetTooLow, "budget 10 tokens too small to emit one chunk", nil).
		WithDetail("budget", "10")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var decoded jsonError
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeBudgetTooLow, decoded.Code)
	assert.Equal(t, "10", decoded.Details["budget"])
}

func TestFormatForLog_IncludesDetailsWithPrefix(t *testing.T) {
	err := New(ErrCodeStorageIO, "write failed", nil).WithDetail("path", "/tmp/x")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeStorageIO, fields["error_code"])
	assert.Equal(t, "/tmp/x", fields["detail_path"])
	assert.True(t, strings.Contains(fields["category"].(string), "STORAGE"))
}

func TestFormatForLog_NonMeridianError(t *testing.T) {
	fields := FormatForLog(errors.New("plain"))
	assert.Equal(t, "plain", fields["error"])
}
