package level

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language: поддерживаемый язык диалога, хранится английским названием.
type Language string

const (
	Turkish Language = "Turkish"
	English Language = "English"
	German  Language = "German"
	French  Language = "French"
	Italian Language = "Italian"
)

var supported = []struct {
	lang Language
	tag  language.Tag
}{
	{Turkish, language.Turkish},
	{English, language.English},
	{German, language.German},
	{French, language.French},
	{Italian, language.Italian},
}

// Caser хранит состояние, поэтому создаётся на каждый вызов.
func fold(s string) string { return cases.Fold().String(s) }

// Languages возвращает поддерживаемые языки в фиксированном порядке.
func Languages() []Language {
	out := make([]Language, 0, len(supported))
	for _, s := range supported {
		out = append(out, s.lang)
	}
	return out
}

// Tag возвращает BCP 47 тег языка; для неподдерживаемых: language.Und.
func (l Language) Tag() language.Tag {
	for _, s := range supported {
		if s.lang == l {
			return s.tag
		}
	}
	return language.Und
}

// Native возвращает самоназвание языка ("Türkçe", "Deutsch").
func (l Language) Native() string {
	t := l.Tag()
	if t == language.Und {
		return string(l)
	}
	return display.Self.Name(t)
}

// Supported сообщает, входит ли язык в поддерживаемый набор.
func (l Language) Supported() bool { return l.Tag() != language.Und }

func (l Language) String() string { return string(l) }

// ParseLanguage распознаёт язык по английскому названию, самоназванию или коду ISO ("tr", "de-AT").
// Регистр не важен. Если язык вне поддерживаемого набора: false.
func ParseLanguage(s string) (Language, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"'.,;:!()[]{}`+"`")
	if s == "" {
		return "", false
	}
	folded := fold(s)
	for _, sup := range supported {
		if folded == fold(string(sup.lang)) || folded == fold(display.Self.Name(sup.tag)) {
			return sup.lang, true
		}
	}
	if tag, err := language.Parse(s); err == nil {
		base, _ := tag.Base()
		for _, sup := range supported {
			if b, _ := sup.tag.Base(); b == base {
				return sup.lang, true
			}
		}
	}
	// "Turkish (Türkçe)" и прочие развёрнутые ответы: язык должен идти первым словом,
	// иначе "Not Turkish" превратится в Turkish
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')' || r == ',' || r == '/' || r == '-'
	})
	if len(words) > 0 {
		for _, sup := range supported {
			if words[0] == fold(string(sup.lang)) || words[0] == fold(display.Self.Name(sup.tag)) {
				return sup.lang, true
			}
		}
	}
	return "", false
}
