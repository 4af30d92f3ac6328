package level

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Threshold: число пользовательских сообщений, после которого определяется уровень.
const Threshold = 3

// Если средняя длина сообщения меньше, текст считаем очень коротким (A1).
const terseWords = 4

// ErrClassification оборачивает ошибку вызова классификатора.
var ErrClassification = errors.New("level classification failed")

// Detection: результат определения языка и уровня. После установки в сессии не меняется.
type Detection struct {
	Language Language `json:"language"`
	Level    CEFR     `json:"level"`
}

// Classifier отправляет одноразовый запрос модели: системная инструкция + текст пользователя.
type Classifier interface {
	Classify(ctx context.Context, instructions string, text string) (string, error)
}

// Config: запасные значения на случай неразборчивого ответа модели.
type Config struct {
	DefaultLanguage Language
	// Пусто: уровень выбирается по длине сообщений пользователя.
	DefaultLevel CEFR
}

type Detector struct {
	classifier Classifier
	cfg        Config
	logger     *zap.SugaredLogger
}

// NewDetector создаёт детектор. Неподдерживаемый язык по умолчанию заменяется на English.
func NewDetector(classifier Classifier, cfg Config, logger *zap.SugaredLogger) *Detector {
	if !cfg.DefaultLanguage.Supported() {
		cfg.DefaultLanguage = English
	}
	if cfg.DefaultLevel != "" && !cfg.DefaultLevel.Valid() {
		cfg.DefaultLevel = ""
	}
	return &Detector{classifier: classifier, cfg: cfg, logger: logger}
}

// Detect возвращает (результат, true, nil), если сообщений достаточно и классификация прошла.
// До порога: (Detection{}, false, nil) без обращения к модели.
// Ошибка классификатора возвращается как ErrClassification; вызывающий повторит попытку на следующем ходе.
func (d *Detector) Detect(ctx context.Context, userMessages []string) (Detection, bool, error) {
	if len(userMessages) < Threshold {
		return Detection{}, false, nil
	}

	start := time.Now()
	reply, err := d.classifier.Classify(ctx, classificationPrompt(), formatSample(userMessages))
	if err != nil {
		d.logger.Warnw("Классификация уровня не удалась", "duration", time.Since(start).String(), "error", err)
		return Detection{}, false, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	det := d.parse(reply, userMessages)
	d.logger.Infow("Уровень определён", "language", det.Language, "level", det.Level, "duration", time.Since(start).String())
	return det, true, nil
}

func (d *Detector) parse(reply string, userMessages []string) Detection {
	langToken, levelToken := extractTokens(reply)

	det := Detection{Language: d.cfg.DefaultLanguage}
	if l, ok := ParseLanguage(langToken); ok {
		det.Language = l
	} else {
		d.logger.Infow("Язык вне поддерживаемого набора, используем язык по умолчанию", "token", langToken, "default", d.cfg.DefaultLanguage)
	}

	if lv, ok := ParseCEFR(levelToken); ok {
		det.Level = lv
	} else {
		det.Level = d.fallbackLevel(userMessages)
		d.logger.Infow("Уровень не распознан, используем запасной", "token", levelToken, "fallback", det.Level)
	}
	return det
}

func (d *Detector) fallbackLevel(userMessages []string) CEFR {
	if d.cfg.DefaultLevel != "" {
		return d.cfg.DefaultLevel
	}
	return TerseLevel(userMessages)
}

// TerseLevel это запасная эвристика. В среднем меньше четырёх слов на сообщение → A1, иначе B1.
func TerseLevel(userMessages []string) CEFR {
	if len(userMessages) == 0 {
		return A1
	}
	words := 0
	for _, m := range userMessages {
		words += len(strings.Fields(m))
	}
	if words < terseWords*len(userMessages) {
		return A1
	}
	return B1
}

// extractTokens достаёт language/level из ответа: сначала первый JSON объект с нужными
// ключами (в том числе обёрнутый в текст или ```json```), затем пары вида "Language: X".
func extractTokens(reply string) (string, string) {
	for _, raw := range jsonObjects(reply) {
		var langToken, levelToken string
		gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
			switch tokenKey(key.String()) {
			case keyLanguage:
				langToken = value.String()
			case keyLevel:
				levelToken = value.String()
			}
			return true
		})
		if langToken != "" || levelToken != "" {
			return langToken, levelToken
		}
	}

	var langToken, levelToken string
	for _, line := range strings.Split(reply, "\n") {
		// "Language - Turkish, Level - A2" и обрывки JSON тоже разбираются как пары
		for _, pair := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			key, value, ok := cutPair(pair)
			if !ok {
				continue
			}
			switch tokenKey(key) {
			case keyLanguage:
				langToken = value
			case keyLevel:
				levelToken = value
			}
		}
	}
	return langToken, levelToken
}

const (
	keyLanguage = "language"
	keyLevel    = "level"
)

// tokenKey приводит ключ к keyLanguage/keyLevel без учёта регистра и обрамления.
func tokenKey(key string) string {
	key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "{}[]*-\"'` "))
	switch key {
	case "language", "lang":
		return keyLanguage
	case "level", "cefr", "cefr level", "cefr_level", "cefr-level":
		return keyLevel
	}
	return ""
}

func cutPair(s string) (string, string, bool) {
	for _, sep := range []string{":", "=", " - "} {
		if key, value, ok := strings.Cut(s, sep); ok {
			return key, strings.Trim(strings.TrimSpace(value), "{}\"'` "), true
		}
	}
	return "", "", false
}

// jsonObjects возвращает все корректные JSON объекты верхнего уровня в порядке появления.
// Скобки внутри строк учитываются, текст вокруг и после объекта игнорируется.
func jsonObjects(s string) []string {
	var out []string
	for start := strings.IndexByte(s, '{'); start >= 0; {
		next := start + 1
		if n := objectLen(s[start:]); n > 0 && gjson.Valid(s[start:start+n]) {
			out = append(out, s[start:start+n])
			next = start + n
		}
		i := strings.IndexByte(s[next:], '{')
		if i < 0 {
			break
		}
		start = next + i
	}
	return out
}

// objectLen возвращает длину сбалансированного объекта в начале s или -1.
func objectLen(s string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func classificationPrompt() string {
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		names = append(names, string(s.lang))
	}
	levels := make([]string, 0, len(Levels))
	for _, l := range Levels {
		levels = append(levels, string(l))
	}
	return "You are a language assessment tool. Read the learner's messages and decide which language they are written in " +
		"and the learner's CEFR proficiency level. The language must be one of: " + strings.Join(names, ", ") +
		". The level must be one of: " + strings.Join(levels, ", ") + ". " +
		`Respond with JSON only, no explanations: {"language": "<language>", "level": "<level>"}`
}

func formatSample(userMessages []string) string {
	var b strings.Builder
	for i, m := range userMessages {
		fmt.Fprintf(&b, "Message %d: %s\n", i+1, strings.TrimSpace(m))
	}
	return b.String()
}
