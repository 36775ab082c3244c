package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// DecodeAnswer turns the model's answer text into validated JSON. Any
// failure is a malformed response.
func DecodeAnswer(text string, schemaMap map[string]any) (json.RawMessage, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, Malformed("empty answer text", nil)
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, Malformed("answer is not valid JSON", nil)
	}
	if err := ValidateJSONAgainstSchema(schemaMap, []byte(cleaned)); err != nil {
		return nil, Malformed("answer does not match the requested schema", err)
	}
	return json.RawMessage(cleaned), nil
}

// StripCodeFence trims whitespace and a surrounding ```json fence some
// models add even in JSON mode.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
