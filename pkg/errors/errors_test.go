package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wraps error with message",
			err:      fmt.Errorf("original"),
			msg:      "context",
			expected: "context: original",
		},
		{
			name: "nil error returns nil",
			err:  nil,
			msg:  "context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.Equal(t, tt.expected, got.Error())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrTransient, "fetching %s version %s", "serde", "1.0.0")
	require.Error(t, err)
	assert.Equal(t, "fetching serde version 1.0.0: transient download failure", err.Error())
	assert.ErrorIs(t, err, ErrTransient)

	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
}

func TestIntegrityTaxonomy(t *testing.T) {
	// Checksum and size mismatches are both integrity failures so callers can
	// match the whole class with a single errors.Is.
	assert.True(t, errors.Is(ErrChecksumMismatch, ErrIntegrity))
	assert.True(t, errors.Is(ErrSizeMismatch, ErrIntegrity))
	assert.False(t, errors.Is(ErrTransient, ErrIntegrity))
}
