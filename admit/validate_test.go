package admit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "ada", "ada", false},
		{"trimmed", "  ada  ", "ada", false},
		{"unicode kept", "Zoë", "Zoë", false},
		{"compatibility form", "ﬁsh", "fish", false}, // fi ligature
		{"empty", "", "", true},
		{"only whitespace", "   ", "", true},
		{"control character", "ada\x07", "", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), "", true},
		{"max length ok", strings.Repeat("a", MaxNameLength), strings.Repeat("a", MaxNameLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsOrdered(t *testing.T) {
	assert.True(t, isOrdered(nil))
	assert.True(t, isOrdered([]int64{1}))
	assert.True(t, isOrdered([]int64{1, 1, 2}))
	assert.False(t, isOrdered([]int64{2, 1}))
}
