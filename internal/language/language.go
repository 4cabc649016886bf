package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Lang is a supported UI language code (ISO 639-1).
type Lang string

// Supported UI languages.
const (
	English    Lang = "en"
	Portuguese Lang = "pt"
	Spanish    Lang = "es"
)

// Default is used whenever a code cannot be resolved.
const Default = English

type entry struct {
	lang    Lang
	code3   string   // ISO 639-2 primary (3-letter)
	display string   // Native name shown in language pickers
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{English, "eng", "English", []string{"english", "inglés", "inglês"}},
	{Portuguese, "por", "Português", []string{"portuguese", "português", "portugués"}},
	{Spanish, "spa", "Español", []string{"spanish", "español", "espanhol"}},
}

var (
	byCode map[string]*entry
	tags   []xlanguage.Tag
	match  xlanguage.Matcher
)

func init() {
	byCode = make(map[string]*entry, len(languages)*4)
	tags = make([]xlanguage.Tag, 0, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[string(e.lang)] = e
		byCode[e.code3] = e
		for _, w := range e.words {
			byCode[w] = e
		}
		tags = append(tags, xlanguage.Make(string(e.lang)))
	}
	match = xlanguage.NewMatcher(tags)
}

// Supported lists the UI languages in preference order.
func Supported() []Lang {
	out := make([]Lang, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.lang)
	}
	return out
}

// Normalize maps a code such as "pt-BR", "spa", or "English" to a supported
// language. Unknown or empty input resolves to Default.
func Normalize(code string) Lang {
	lang, ok := Lookup(code)
	if !ok {
		return Default
	}
	return lang
}

// Lookup reports the supported language for code, if any.
func Lookup(code string) (Lang, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", false
	}
	if e, ok := byCode[code]; ok {
		return e.lang, true
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	if e, ok := byCode[base.String()]; ok {
		return e.lang, true
	}
	return "", false
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) Lang {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return Default
	}
	desired, _, err := xlanguage.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return Default
	}
	_, index, confidence := match.Match(desired...)
	if confidence == xlanguage.No {
		return Default
	}
	return languages[index].lang
}

// DisplayName returns the native name of a supported language.
func DisplayName(lang Lang) string {
	if e, ok := byCode[string(lang)]; ok {
		return e.display
	}
	return strings.ToUpper(string(lang))
}

// Localized holds one message per language.
type Localized map[Lang]string

// In returns the message for lang, falling back to English.
func (l Localized) In(lang Lang) string {
	if msg, ok := l[lang]; ok && msg != "" {
		return msg
	}
	return l[English]
}
