package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	raw         string
	err         error
	prompt      string
	temperature float64
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	f.prompt = prompt
	f.temperature = temperature
	return f.raw, f.err
}

func TestParseTitles(t *testing.T) {
	raw := "1. Inception\nInception\nThe Matrix\nIn\n\n• Paprika"
	got := parseTitles(raw, 15)
	assert.Equal(t, []string{"Inception", "The Matrix", "Paprika"}, got)
}

func TestParseTitlesCapsAtMax(t *testing.T) {
	raw := "Heat\nAkira\nBrazil\nSolaris"
	assert.Len(t, parseTitles(raw, 2), 2)
}

func TestRelatedTemperatureAndParsing(t *testing.T) {
	fc := &fakeCompleter{raw: "1. Blade Runner\n2. Ghost in the Shell"}
	s := New(fc)

	got, err := s.Related(context.Background(), "Akira", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blade Runner", "Ghost in the Shell"}, got)
	assert.Equal(t, relatedTemperature, fc.temperature)
	assert.Contains(t, fc.prompt, "Akira")
	assert.Contains(t, fc.prompt, "15")
}

func TestContrastTemperature(t *testing.T) {
	fc := &fakeCompleter{raw: "Paddington"}
	s := New(fc)

	got, err := s.Contrast(context.Background(), "Saw", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paddington"}, got)
	assert.Equal(t, contrastTemperature, fc.temperature)
	assert.Contains(t, fc.prompt, `"Saw"`)
}

func TestSuggestError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	s := New(fc)

	_, err := s.Related(context.Background(), "Heat", 15)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Heat"))

	_, err = s.Contrast(context.Background(), "Heat", 15)
	require.Error(t, err)
}
