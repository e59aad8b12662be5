package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	tcs := []struct {
		name     string
		lang     Language
		key      Key
		expected string
	}{
		{
			name:     "English",
			lang:     English,
			key:      KeySilentStars,
			expected: "The stars are silent today...",
		},
		{
			name:     "French",
			lang:     French,
			key:      KeyAnonymousAuthor,
			expected: "Étoile Anonyme",
		},
		{
			name:     "UnknownLanguageFallsBackToEnglish",
			lang:     Language("xx"),
			key:      KeyScatteredWords,
			expected: "The cosmic winds have scattered the words of this era.",
		},
		{
			name:     "UnknownKey",
			lang:     German,
			key:      Key("nope"),
			expected: "nope",
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, T(c.lang, c.key))
		})
	}
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jul", MonthLabel(English, 7))
	assert.Equal(t, "Okt", MonthLabel(German, 10))
	assert.Equal(t, "Jan", MonthLabel(Language("xx"), 1))
	assert.Equal(t, "", MonthLabel(English, 0))
	assert.Equal(t, "", MonthLabel(English, 13))
}

func TestParse(t *testing.T) {
	l, ok := Parse("es")
	assert.True(t, ok)
	assert.Equal(t, Spanish, l)

	_, ok = Parse("pt")
	assert.False(t, ok)
}

func TestNegotiate(t *testing.T) {
	tcs := []struct {
		header   string
		expected Language
	}{
		{header: "", expected: English},
		{header: "fr-CH, fr;q=0.9, en;q=0.8", expected: French},
		{header: "de-DE", expected: German},
		{header: "es-MX,es;q=0.9", expected: Spanish},
		{header: "ja", expected: English},
	}
	for _, c := range tcs {
		t.Run(c.header, func(t *testing.T) {
			assert.Equal(t, c.expected, Negotiate(c.header))
		})
	}
}
