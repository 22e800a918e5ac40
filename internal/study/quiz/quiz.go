// internal/study/quiz/quiz.go
package quiz

import (
	"math"
	"strconv"
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/outline"
	"study-assistant-workers/internal/study/payload"
)

// answerKeys are probed in order on every structured question.
var answerKeys = []string{
	"correctOptionIndex",
	"correct_index",
	"correctIndex",
	"answer_index",
	"answer",
	"correct_answer",
	"correctAnswer",
}

// Extract returns the quiz carried by p. Structured questions win, then
// the text question pass; anything else becomes formatted text.
func Extract(p payload.Payload) models.Quiz {
	if !p.IsText() {
		if questions := fromStructured(p); len(questions) > 0 {
			return questionsQuiz(questions)
		}
		return formatted(p.String())
	}

	text := p.Text
	if embedded, ok := embeddedJSON(text); ok {
		if questions := fromStructured(embedded); len(questions) > 0 {
			return questionsQuiz(questions)
		}
	}

	if questions := FromText(text); len(questions) > 0 {
		return questionsQuiz(questions)
	}
	return formatted(text)
}

func questionsQuiz(questions []models.QuizQuestion) models.Quiz {
	return models.Quiz{Kind: models.QuizKindQuestions, Questions: questions}
}

func formatted(text string) models.Quiz {
	return models.Quiz{Kind: models.QuizKindFormattedText, Outline: outline.FromText(text)}
}

// embeddedJSON finds a JSON object inside surrounding prose, e.g. a model
// reply that introduces its JSON with a sentence.
func embeddedJSON(text string) (payload.Payload, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return payload.Payload{}, false
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return payload.Payload{}, false
	}
	p := payload.Unwrap(text[start : end+1])
	if p.IsText() {
		return payload.Payload{}, false
	}
	return p, true
}

func fromStructured(p payload.Payload) []models.QuizQuestion {
	items, ok := p.List()
	if !ok {
		obj, isObj := p.Object()
		if !isObj {
			return nil
		}
		items = questionList(obj)
		if items == nil {
			if inner, nested := obj["response"].(map[string]interface{}); nested {
				items = questionList(inner)
			}
		}
	}

	questions := make([]models.QuizQuestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if q, ok := parseQuestion(m); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func questionList(obj map[string]interface{}) []interface{} {
	switch v := obj["questions"].(type) {
	case []interface{}:
		return v
	case string:
		// some backends double-encode the question array
		if list, ok := payload.Unwrap(v).List(); ok {
			return list
		}
	}
	return nil
}

func parseQuestion(m map[string]interface{}) (models.QuizQuestion, bool) {
	question, _ := payload.Str(m["question"])
	if question == "" {
		return models.QuizQuestion{}, false
	}

	rawOptions, ok := m["options"].([]interface{})
	if !ok || len(rawOptions) < 2 {
		return models.QuizQuestion{}, false
	}
	options := make([]string, 0, len(rawOptions))
	for _, o := range rawOptions {
		text, ok := optionText(o)
		if !ok {
			return models.QuizQuestion{}, false
		}
		options = append(options, text)
	}

	raw, ok := payload.Field(m, answerKeys...)
	if !ok {
		return models.QuizQuestion{}, false
	}
	index, ok := ResolveAnswer(raw, options, nil)
	if !ok {
		return models.QuizQuestion{}, false
	}

	explanation, _ := payload.Str(m["explanation"])
	return models.QuizQuestion{
		Question:           question,
		Options:            options,
		CorrectOptionIndex: index,
		Explanation:        explanation,
	}, true
}

func optionText(o interface{}) (string, bool) {
	switch v := o.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case map[string]interface{}:
		s, _ := payload.Str(v["text"])
		return s, s != ""
	}
	return "", false
}

// ResolveAnswer maps an answer value to a 0-based option index. Integers
// are indexes; strings may be a letter, a numeric index or the option
// text. letters, when set, gives the letter printed before each option.
func ResolveAnswer(v interface{}, options []string, letters []byte) (int, bool) {
	if f, ok := payload.Number(v, false); ok {
		return indexIn(f, len(options))
	}

	s, ok := payload.Str(v)
	if !ok || s == "" {
		return 0, false
	}
	for i, o := range options {
		if strings.EqualFold(o, s) {
			return i, true
		}
	}
	s = strings.Trim(s, "[]()*` ")

	if letter, ok := answerLetter(s); ok {
		if letters == nil {
			return indexIn(float64(letter-'A'), len(options))
		}
		for i, l := range letters {
			if l == letter {
				return i, true
			}
		}
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return indexIn(float64(n), len(options))
	}
	return 0, false
}

// answerLetter accepts "B", "b", "B.", "B)", "B:" and "B. option text".
// A letter followed by a space is a word, as in "A cell".
func answerLetter(s string) (byte, bool) {
	if s == "" {
		return 0, false
	}
	c := s[0]
	if c >= 'a' && c <= 'h' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'H' {
		return 0, false
	}
	if len(s) == 1 {
		return c, true
	}
	switch s[1] {
	case '.', ')', ':':
		return c, true
	}
	return 0, false
}

func indexIn(f float64, n int) (int, bool) {
	if f != math.Trunc(f) || f < 0 || f >= float64(n) {
		return 0, false
	}
	return int(f), true
}
