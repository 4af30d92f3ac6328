package level

import (
	"regexp"
	"strings"
)

// CEFR: уровень владения языком по шкале CEFR.
type CEFR string

const (
	A1 CEFR = "A1"
	A2 CEFR = "A2"
	B1 CEFR = "B1"
	B2 CEFR = "B2"
	C1 CEFR = "C1"
	C2 CEFR = "C2"
)

// Levels: все канонические уровни по возрастанию.
var Levels = []CEFR{A1, A2, B1, B2, C1, C2}

var levelTokenRe = regexp.MustCompile(`(?i)\b([abc][12])\b`)

// Описательные названия, которыми модель иногда отвечает вместо кода.
// Порядок важен: берётся первое совпадение, поэтому "beginner" раньше "elementary",
// а составные названия раньше "intermediate".
var levelAliases = []struct {
	name  string
	level CEFR
}{
	{"beginner", A1},
	{"pre-intermediate", A2},
	{"pre intermediate", A2},
	{"upper-intermediate", B2},
	{"upper intermediate", B2},
	{"lower-intermediate", A2},
	{"lower intermediate", A2},
	{"intermediate", B1},
	{"elementary", A2},
	{"advanced", C1},
	{"proficient", C2},
	{"proficiency", C2},
	{"mastery", C2},
}

// ParseCEFR извлекает уровень из произвольного токена: "b2", "B2+", "Level: C1",
// "upper intermediate". Возвращает false, если уровень не распознан.
func ParseCEFR(s string) (CEFR, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := levelTokenRe.FindStringSubmatch(s); m != nil {
		return CEFR(strings.ToUpper(m[1])), true
	}
	lower := strings.ToLower(s)
	for _, a := range levelAliases {
		if strings.Contains(lower, a.name) {
			return a.level, true
		}
	}
	return "", false
}

// Valid сообщает, является ли значение одним из шести канонических уровней.
func (c CEFR) Valid() bool {
	for _, l := range Levels {
		if c == l {
			return true
		}
	}
	return false
}

func (c CEFR) String() string { return string(c) }
