package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) interface{} {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestUnwrap_Text(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected string
	}{
		{name: "nil", raw: nil, expected: ""},
		{name: "empty string", raw: "", expected: ""},
		{name: "plain string is trimmed", raw: "  Xin chào  \n", expected: "Xin chào"},
		{name: "json scalar string stays as written", raw: `"quoted"`, expected: `"quoted"`},
		{name: "number", raw: float64(42), expected: "42"},
		{name: "bool", raw: true, expected: "true"},
		{name: "control characters removed", raw: "a\x00b\x07c\r\nd", expected: "abc\nd"},
		{name: "response key", raw: map[string]interface{}{"response": "hello"}, expected: "hello"},
		{name: "message key", raw: map[string]interface{}{"message": " done "}, expected: "done"},
		{name: "data key", raw: map[string]interface{}{"data": "x"}, expected: "x"},
		{
			name:     "response wins over message",
			raw:      map[string]interface{}{"message": "second", "response": "first"},
			expected: "first",
		},
		{
			name:     "json string layers",
			raw:      `{"response": "{\"message\": \"deep\"}"}`,
			expected: "deep",
		},
		{name: "wrapper with null value", raw: map[string]interface{}{"response": nil}, expected: ""},
		{name: "invalid json stays text", raw: `{"response": `, expected: `{"response":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Unwrap(tt.raw)
			assert.True(t, p.IsText())
			assert.Equal(t, tt.expected, p.Text)
		})
	}
}

func TestUnwrap_Structured(t *testing.T) {
	t.Run("domain object returned as is", func(t *testing.T) {
		raw := decodeJSON(t, `{"flashcards": [{"term": "A", "definition": "B"}]}`)
		p := Unwrap(raw)

		obj, ok := p.Object()
		require.True(t, ok)
		assert.True(t, p.HasDomainKey())
		assert.Contains(t, obj, "flashcards")
	})

	t.Run("nested domain object under response", func(t *testing.T) {
		p := Unwrap(map[string]interface{}{
			"response": map[string]interface{}{"questions": []interface{}{}},
		})
		assert.True(t, p.HasDomainKey())
	})

	t.Run("json string decoding to object", func(t *testing.T) {
		p := Unwrap(`{"subjects": {"Toán": {"progress": 45}}}`)
		obj, ok := p.Object()
		require.True(t, ok)
		subjects := obj["subjects"].(map[string]interface{})
		assert.Contains(t, subjects, "Toán")
	})

	t.Run("non-domain object stays structured", func(t *testing.T) {
		p := Unwrap(map[string]interface{}{"Toán": float64(45)})
		_, ok := p.Object()
		assert.True(t, ok)
		assert.False(t, p.HasDomainKey())
	})

	t.Run("array", func(t *testing.T) {
		p := Unwrap(`[{"question": "q"}]`)
		list, ok := p.List()
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("fenced json block", func(t *testing.T) {
		p := Unwrap("```json\n{\"flashcards\": []}\n```")
		assert.True(t, p.HasDomainKey())
	})

	t.Run("fenced prose stays text", func(t *testing.T) {
		p := Unwrap("```\nnot json\n```")
		assert.True(t, p.IsText())
	})
}

func TestUnwrap_DepthBound(t *testing.T) {
	var raw interface{} = "leaf"
	for i := 0; i < 20; i++ {
		raw = map[string]interface{}{"response": raw}
	}

	assert.NotPanics(t, func() {
		p := Unwrap(raw)
		assert.True(t, p.IsText())
		assert.NotEmpty(t, p.Text)
	})
}

func TestUnwrap_TypedValues(t *testing.T) {
	type wrapper struct {
		Response string `json:"response"`
	}

	p := Unwrap(wrapper{Response: "typed"})
	assert.Equal(t, "typed", p.Text)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected interface{}
	}{
		{name: "empty body", body: "  ", expected: ""},
		{name: "object body", body: `{"response": "ok", "n": 3}`, expected: map[string]interface{}{"response": "ok", "n": json.Number("3")}},
		{name: "non json body", body: " plain answer\n", expected: "plain answer"},
		{name: "trailing garbage", body: `{"a": 1} tail`, expected: `{"a": 1} tail`},
		{name: "array body", body: `[1, 2]`, expected: []interface{}{json.Number("1"), json.Number("2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeJSON([]byte(tt.body)))
		})
	}
}

func TestDecodeJSON_ThenUnwrap(t *testing.T) {
	p := Unwrap(DecodeJSON([]byte(`{"response": "ok", "sources": []}`)))
	assert.Equal(t, "ok", p.Text)
}

func TestUnwrap_Idempotent(t *testing.T) {
	raws := []interface{}{
		`{"response": {"subjects": {"Lý": 80}}}`,
		"# Title\n- a",
		map[string]interface{}{"message": "ok"},
	}

	for _, raw := range raws {
		first, _ := json.Marshal(Unwrap(raw))
		second, _ := json.Marshal(Unwrap(raw))
		assert.Equal(t, string(first), string(second))
	}
}

func TestPayload_String(t *testing.T) {
	assert.Equal(t, "abc", Text("abc").String())
	assert.JSONEq(t, `{"a":1}`, Structured(map[string]interface{}{"a": 1}).String())
}

func TestPayload_IsEmpty(t *testing.T) {
	assert.True(t, Text("").IsEmpty())
	assert.True(t, Structured(map[string]interface{}{}).IsEmpty())
	assert.True(t, Structured([]interface{}{}).IsEmpty())
	assert.False(t, Structured([]interface{}{1}).IsEmpty())
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		lenient  bool
		expected float64
		ok       bool
	}{
		{name: "json number", value: json.Number("45"), expected: 45, ok: true},
		{name: "float", value: 12.5, expected: 12.5, ok: true},
		{name: "int", value: 7, expected: 7, ok: true},
		{name: "string strict", value: "45", ok: false},
		{name: "string lenient", value: " 45% ", lenient: true, expected: 45, ok: true},
		{name: "bad string", value: "abc", lenient: true, ok: false},
		{name: "bool", value: true, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Number(tt.value, tt.lenient)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, f)
			}
		})
	}
}
