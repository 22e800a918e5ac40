package validation

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaFiles maps an artifact kind to its schema file.
var schemaFiles = map[string]string{
	"flashcards":    "flashcards.json",
	"quiz":          "quiz.json",
	"formattedText": "quiz.json",
	"outline":       "outline.json",
	"mindmap":       "outline.json",
	"progress":      "progress.json",
	"stats":         "stats.json",
	"text":          "text.json",
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		byFile := map[string]*gojsonschema.Schema{}
		compiled = map[string]*gojsonschema.Schema{}
		for kind, file := range schemaFiles {
			if s, ok := byFile[file]; ok {
				compiled[kind] = s
				continue
			}
			raw, err := schemaFS.ReadFile("schemas/" + file)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", file, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", file, err)
				return
			}
			byFile[file] = s
			compiled[kind] = s
		}
	})
	return compiled, compileErr
}

// ValidateArtifact checks a normalized artifact (any value that marshals to
// the artifact JSON shape) against the embedded schema for kind.
func ValidateArtifact(kind string, artifact interface{}) (*ValidationResult, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("no schema for artifact kind %q", kind)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(artifact))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateInput validates a job input map against a JSON schema document.
func ValidateInput(input map[string]interface{}, schemaJSON string) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(r *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: r.Valid()}
	for _, desc := range r.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and everything nested under it.
// gojsonschema reports nested fields as "a.b" and array items as "a.0".
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
