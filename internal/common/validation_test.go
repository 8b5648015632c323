package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Error(t *testing.T) {
	assert.NoError(t, NewValidator().Field("contractText", "ok", Required, MaxLength(10)).Error())

	err := NewValidator().
		Field("contractText", "  ", Required).
		Field("title", strings.Repeat("é", 11), MaxLength(10)).
		Field("id", "nope", UUID).
		Error()
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "contractText is required")
	assert.Contains(t, err.Error(), "title must be at most 10 characters")
	assert.Contains(t, err.Error(), "id must be a valid UUID")
}
