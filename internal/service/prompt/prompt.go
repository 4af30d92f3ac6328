// Package prompt собирает системную инструкцию для модели по результату определения уровня.
package prompt

import (
	"LinguaChat/internal/service/level"
	"fmt"
	"strings"
)

// Neutral: инструкция до определения языка и уровня.
const Neutral = "You are a friendly conversation partner for language learners. " +
	"The learner may write in Turkish, English, German, French or Italian. " +
	"Reply in the language the learner uses, keep your answers short and natural, " +
	"and invite them to keep writing freely about anything they like."

// Указания по сложности для каждого уровня CEFR.
var levelGuidance = map[level.CEFR]string{
	level.A1: "Use very short, simple sentences in the present tense, only high-frequency everyday vocabulary, " +
		"and avoid idioms. Ask one simple question at a time.",
	level.A2: "Use short sentences with basic connectors, common past and future forms, and familiar everyday topics. " +
		"Avoid idioms and rare words.",
	level.B1: "Use clear, straightforward language on familiar topics, a moderate range of tenses and common expressions. " +
		"Explain any less common word briefly.",
	level.B2: "Use natural, fluent language with varied sentence structures and some idiomatic expressions, " +
		"as you would with a confident intermediate speaker.",
	level.C1: "Use rich, precise vocabulary, complex sentence structures and idiomatic language freely, " +
		"including abstract and professional topics.",
	level.C2: "Speak as with a near-native speaker: idiomatic, nuanced register, subtle humour, " +
		"and the full range of grammatical structures.",
}

// Composer собирает системную инструкцию. Результат зависит только от входа и персоны.
type Composer struct {
	persona string
}

// NewComposer создаёт сборщик. persona (опционально) добавляется перед инструкцией.
func NewComposer(persona string) *Composer {
	return &Composer{persona: strings.TrimSpace(persona)}
}

// Compose возвращает инструкцию; det == nil: нейтральная мультиязычная инструкция.
func (c *Composer) Compose(det *level.Detection) string {
	body := Neutral
	if det != nil {
		body = Detected(det.Language, det.Level)
	}
	if c.persona == "" {
		return body
	}
	return c.persona + "\n\n" + body
}

// Detected фиксирует язык ответа и сложность под уровень.
func Detected(lang level.Language, lvl level.CEFR) string {
	guidance, ok := levelGuidance[lvl]
	if !ok {
		guidance = levelGuidance[level.B1]
	}
	name := string(lang)
	if native := lang.Native(); native != "" && native != name {
		name = fmt.Sprintf("%s (%s)", lang, native)
	}
	return fmt.Sprintf("You are a friendly conversation partner for a %s learner at CEFR level %s. "+
		"Always reply in %s only, even if the learner switches language. %s "+
		"Keep the conversation going with a short follow-up question.",
		lang, lvl, name, guidance)
}
