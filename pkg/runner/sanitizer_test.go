package runner

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", DefaultMaxInputSize - 1, false},
		{"exact limit", DefaultMaxInputSize, false},
		{"over limit", DefaultMaxInputSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInputTooLarge))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")

	_, err := SanitizeInput("t 1 1 1234")
	assert.True(t, errors.Is(err, ErrInputTooLarge))

	_, err = SanitizeInput("t 1 1")
	assert.NoError(t, err)
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "w 1 2 82.5", "w 1 2 82.5"},
		{"safe controls", "t 1\t2\n", "t 1\t2\n"},
		{"ansi escape", "\x1b[31mend\x1b[0m", "[31mend[0m"},
		{"null byte", "add\x00 1", "add 1"},
		{"bell", "end\x07", "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("t \xff 1")
	assert.True(t, errors.Is(err, ErrInvalidUTF8))
}
