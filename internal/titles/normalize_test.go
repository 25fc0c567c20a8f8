package titles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Inception", "Inception"},
		{"numbered dot", "1. Inception", "Inception"},
		{"numbered paren", "2) The Matrix", "The Matrix"},
		{"numbered dash", "3 - Paprika", "Paprika"},
		{"bullet", "• Akira", "Akira"},
		{"dash bullet", "- Heat", "Heat"},
		{"star bullet", "* Heat", "Heat"},
		{"surrounding space", "  Blade Runner  ", "Blade Runner"},
		{"empty", "   ", ""},
		{"number inside title kept", "2001: A Space Odyssey", "2001: A Space Odyssey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("The Matrix"), Key("the matrix"))
	assert.Equal(t, Key("  Heat "), Key("HEAT"))
	// full-width compatibility forms fold together
	assert.Equal(t, Key("Ｈｅａｔ"), Key("heat"))
	assert.NotEqual(t, Key("Heat"), Key("Heat 2"))
}

func TestDedup(t *testing.T) {
	in := []string{"Inception", "The Matrix", "inception", "Paprika", "THE MATRIX"}
	assert.Equal(t, []string{"Inception", "The Matrix", "Paprika"}, Dedup(in))
}

func TestDedupDropsEmpty(t *testing.T) {
	assert.Empty(t, Dedup([]string{"", "  "}))
}
