// internal/study/flashcard/flashcard.go
package flashcard

import (
	"strings"

	"study-assistant-workers/internal/models"
	"study-assistant-workers/internal/study/payload"
)

// Extract returns the flashcard deck carried by p. Structured input with a
// flashcards array is passed through; text runs the marker pass and, when
// that finds nothing, the bullet pass. Incomplete cards are dropped.
func Extract(p payload.Payload) []models.Flashcard {
	if !p.IsText() {
		if cards, ok := fromStructured(p); ok {
			return cards
		}
		return FromText(p.String())
	}
	return FromText(p.Text)
}

// FromText parses a free-form deck.
func FromText(text string) []models.Flashcard {
	if strings.TrimSpace(text) == "" {
		return []models.Flashcard{}
	}
	lines := strings.Split(payload.Clean(text), "\n")

	marker := NewMarkerAccumulator()
	for _, l := range lines {
		marker.Feed(l)
	}
	if cards := marker.Finish(); len(cards) > 0 {
		return cards
	}

	bullets := NewBulletAccumulator()
	for _, l := range lines {
		bullets.Feed(l)
	}
	return bullets.Finish()
}

func fromStructured(p payload.Payload) ([]models.Flashcard, bool) {
	var items []interface{}
	if list, ok := p.List(); ok {
		items = list
	} else if obj, ok := p.Object(); ok {
		raw, exists := obj["flashcards"]
		if !exists {
			return nil, false
		}
		list, ok := raw.([]interface{})
		if !ok {
			if s, isString := raw.(string); isString {
				return FromText(s), true
			}
			return []models.Flashcard{}, true
		}
		items = list
	} else {
		return nil, false
	}

	cards := make([]models.Flashcard, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		term := firstString(m, "term", "front")
		definition := firstString(m, "definition", "back")
		if term == "" || definition == "" {
			continue
		}
		cards = append(cards, models.Flashcard{Term: term, Definition: definition})
	}
	return cards, true
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := payload.Str(m[k]); ok && s != "" {
			return s
		}
	}
	return ""
}
