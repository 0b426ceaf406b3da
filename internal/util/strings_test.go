package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrDefault(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		def   string
		want  string
	}{
		{"nil slice returns default", nil, "(none)", "(none)"},
		{"empty slice returns default", []string{}, "(built-in set)", "(built-in set)"},
		{"single item", []string{"light"}, "(none)", "light"},
		{"multiple items", []string{"light", "switch", "fan"}, "(none)", "light, switch, fan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinOrDefault(tt.items, tt.def))
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "printers", Pluralize(0, "printer", "printers"))
	assert.Equal(t, "printer", Pluralize(1, "printer", "printers"))
	assert.Equal(t, "printers", Pluralize(2, "printer", "printers"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "Wohnzim…", Truncate("Wohnzimmer", 8))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("pw"))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "****3456", MaskSecret("abcdef123456"))
}
