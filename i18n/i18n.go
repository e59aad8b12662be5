// Package i18n vends the localized string table of chronos service. Lookups never fail: a key missing from a
// language falls back to English, and a key missing from English falls back to the key itself.
package i18n

import (
	"golang.org/x/text/language"
)

// Language is a supported UI language, identified by its ISO 639-1 code
type Language string

const (
	English Language = "en"
	French  Language = "fr"
	Spanish Language = "es"
	German  Language = "de"
)

// Supported lists the supported languages; the first one is the default
var Supported = []Language{English, French, Spanish, German}

// Key identifies an entry of the string table
type Key string

const (
	KeyAnonymousAuthor Key = "anonymousAuthor"
	KeyEmptyVoid       Key = "emptyVoid"
	KeySilentStars     Key = "silentStars"
	KeyScatteredWords  Key = "scatteredWords"
	KeyLanguageName    Key = "languageName"
)

var table = map[Language]map[Key]string{
	English: {
		KeyAnonymousAuthor: "Anonymous Star",
		KeyEmptyVoid:       "In this celestial void, silence reigns. It awaits a pioneer to ignite the first spark of memory.",
		KeySilentStars:     "The stars are silent today...",
		KeyScatteredWords:  "The cosmic winds have scattered the words of this era.",
		KeyLanguageName:    "English",
	},
	French: {
		KeyAnonymousAuthor: "Étoile Anonyme",
		KeyEmptyVoid:       "Dans ce vide céleste, le silence règne. Il attend un pionnier pour allumer la première étincelle de mémoire.",
		KeySilentStars:     "Les étoiles sont silencieuses aujourd'hui...",
		KeyScatteredWords:  "Les vents cosmiques ont dispersé les mots de cette époque.",
		KeyLanguageName:    "French",
	},
	Spanish: {
		KeyAnonymousAuthor: "Estrella Anónima",
		KeyEmptyVoid:       "En este vacío celeste reina el silencio. Espera a un pionero que encienda la primera chispa de memoria.",
		KeySilentStars:     "Las estrellas guardan silencio hoy...",
		KeyScatteredWords:  "Los vientos cósmicos han dispersado las palabras de esta era.",
		KeyLanguageName:    "Spanish",
	},
	German: {
		KeyAnonymousAuthor: "Anonymer Stern",
		KeyEmptyVoid:       "In dieser himmlischen Leere herrscht Stille. Sie wartet auf einen Pionier, der den ersten Funken der Erinnerung entzündet.",
		KeySilentStars:     "Die Sterne schweigen heute...",
		KeyScatteredWords:  "Die kosmischen Winde haben die Worte dieser Ära verstreut.",
		KeyLanguageName:    "German",
	},
}

var monthLabels = map[Language][12]string{
	English: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	French:  {"Janv", "Févr", "Mars", "Avr", "Mai", "Juin", "Juil", "Août", "Sept", "Oct", "Nov", "Déc"},
	Spanish: {"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"},
	German:  {"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
}

// T looks up the string of key k in language l
func T(l Language, k Key) string {
	if s, ok := table[l][k]; ok {
		return s
	}
	if s, ok := table[English][k]; ok {
		return s
	}
	return string(k)
}

// MonthLabel returns the short label of month m (1-12) in language l, or an empty string for an invalid month
func MonthLabel(l Language, m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	labels, ok := monthLabels[l]
	if !ok {
		labels = monthLabels[English]
	}
	return labels[m-1]
}

// Parse returns the supported language whose code is s, if any
func Parse(s string) (Language, bool) {
	for _, l := range Supported {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

var matcher = language.NewMatcher(func() []language.Tag {
	tags := make([]language.Tag, len(Supported))
	for i, l := range Supported {
		tags[i] = language.Make(string(l))
	}
	return tags
}())

// Negotiate picks a supported language from an Accept-Language header value. It returns English when nothing
// matches or the header is malformed.
func Negotiate(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	return Supported[idx]
}
