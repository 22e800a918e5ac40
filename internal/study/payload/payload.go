// internal/study/payload/payload.go
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type Kind string

const (
	KindText       Kind = "text"
	KindStructured Kind = "structured"
)

// maxDepth bounds recursion through wrapper keys and JSON-string layers.
const maxDepth = 8

var (
	wrapperKeys = []string{"response", "message", "data"}
	domainKeys  = []string{"subjects", "plan", "questions", "flashcards"}

	fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\n?(.*?)\n?```$")
)

// Payload is a backend response after unwrapping: either text or a
// structured value (a JSON object or array).
type Payload struct {
	Kind  Kind
	Text  string
	Value interface{}
}

func Text(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

func Structured(v interface{}) Payload {
	return Payload{Kind: KindStructured, Value: v}
}

func (p Payload) IsText() bool { return p.Kind != KindStructured }

// Object returns the structured value as a JSON object.
func (p Payload) Object() (map[string]interface{}, bool) {
	if p.Kind != KindStructured {
		return nil, false
	}
	m, ok := p.Value.(map[string]interface{})
	return m, ok
}

// List returns the structured value as a JSON array.
func (p Payload) List() ([]interface{}, bool) {
	if p.Kind != KindStructured {
		return nil, false
	}
	l, ok := p.Value.([]interface{})
	return l, ok
}

// HasDomainKey reports whether the structured value is an object carrying
// one of the known artifact keys.
func (p Payload) HasDomainKey() bool {
	m, ok := p.Object()
	if !ok {
		return false
	}
	for _, k := range domainKeys {
		if _, exists := m[k]; exists {
			return true
		}
	}
	return false
}

// String renders the payload as text. Structured values are rendered as
// compact JSON.
func (p Payload) String() string {
	if p.IsText() {
		return p.Text
	}
	return stringify(p.Value)
}

func (p Payload) IsEmpty() bool {
	if p.IsText() {
		return p.Text == ""
	}
	switch v := p.Value.(type) {
	case map[string]interface{}:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	}
	return p.Value == nil
}

// Unwrap peels wrapper keys and JSON-string layers off a decoded backend
// value. It never panics.
func Unwrap(raw interface{}) (p Payload) {
	defer func() {
		if r := recover(); r != nil {
			p = Text(strings.TrimSpace(stringify(raw)))
		}
	}()
	return unwrap(raw, 0)
}

// DecodeJSON decodes a response body into a raw value, keeping numbers as
// json.Number. It never fails: an empty body decodes to "" and a body that
// is not a single JSON value is returned as trimmed text.
func DecodeJSON(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var v interface{}
	if err := decode(trimmed, &v); err != nil {
		return string(trimmed)
	}
	return v
}

func unwrap(raw interface{}, depth int) Payload {
	if depth >= maxDepth {
		return Text(strings.TrimSpace(stringify(raw)))
	}

	switch v := raw.(type) {
	case nil:
		return Text("")
	case string:
		return unwrapString(v, depth)
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if inner, ok := v[key]; ok {
				return unwrap(inner, depth+1)
			}
		}
		return Structured(v)
	case []interface{}:
		return Structured(v)
	case json.Number:
		return Text(v.String())
	case bool, float64, float32, int, int64, int32:
		return Text(fmt.Sprint(v))
	default:
		// typed Go values (structs, typed maps) are normalized through JSON
		data, err := json.Marshal(v)
		if err != nil {
			return Text(fmt.Sprint(v))
		}
		var generic interface{}
		if err := decode(data, &generic); err != nil {
			return Text(string(data))
		}
		return unwrap(generic, depth+1)
	}
}

func unwrapString(s string, depth int) Payload {
	cleaned := strings.TrimSpace(Clean(s))
	if cleaned == "" {
		return Text("")
	}

	if parsed, ok := parseContainer(cleaned); ok {
		return unwrap(parsed, depth+1)
	}

	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		if parsed, ok := parseContainer(strings.TrimSpace(m[1])); ok {
			return unwrap(parsed, depth+1)
		}
	}

	return Text(cleaned)
}

// parseContainer parses s only when it is a JSON object or array.
func parseContainer(s string) (interface{}, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var v interface{}
	if err := decode([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return v, true
	}
	return nil, false
}

// Clean removes control characters other than newlines and tabs and
// normalizes line endings.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
