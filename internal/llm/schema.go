package llm

import "strings"

// Schemas are authored as JSON Schema (draft 2020-12 subset) maps. The same
// map validates answers locally and, after conversion, constrains the
// provider's output.

func stringProp(description string) map[string]any {
	p := map[string]any{"type": "string"}
	if description != "" {
		p["description"] = description
	}
	return p
}

func objectOf(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// BuildExtractionSchema is an array of {courseName, eventName, date}.
func BuildExtractionSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": objectOf(map[string]any{
			"courseName": stringProp(""),
			"eventName":  stringProp(""),
			"date":       stringProp("Date in YYYY-MM-DD format"),
		}, "courseName", "eventName", "date"),
	}
}

// BuildScheduleSchema is {schedule: [{title, start, end}], ical}.
func BuildScheduleSchema() map[string]any {
	event := objectOf(map[string]any{
		"title": stringProp(""),
		"start": stringProp("Full ISO 8601 datetime"),
		"end":   stringProp("Full ISO 8601 datetime"),
	}, "title", "start", "end")

	return objectOf(map[string]any{
		"schedule": map[string]any{"type": "array", "items": event},
		"ical":     stringProp("A full, valid iCalendar (.ics) string."),
	}, "schedule", "ical")
}

// BuildFlashcardSchema is an array of {question, answer}.
func BuildFlashcardSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": objectOf(map[string]any{
			"question": stringProp("The question for the front of the flashcard."),
			"answer":   stringProp("The answer for the back of the flashcard."),
		}, "question", "answer"),
	}
}

// geminiSchemaKeys is the OpenAPI subset the generateContent endpoint accepts.
var geminiSchemaKeys = map[string]struct{}{
	"type": {}, "format": {}, "description": {}, "nullable": {}, "enum": {},
	"properties": {}, "required": {}, "items": {}, "minItems": {}, "maxItems": {},
}

// ToGeminiSchema converts a JSON Schema map into Gemini's responseSchema
// dialect: upper-case type names, unsupported keywords dropped.
func ToGeminiSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if _, ok := geminiSchemaKeys[k]; !ok {
			continue
		}
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "items":
			if m, ok := v.(map[string]any); ok {
				out[k] = ToGeminiSchema(m)
				continue
			}
			out[k] = v
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			conv := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					conv[name] = ToGeminiSchema(pm)
				} else {
					conv[name] = p
				}
			}
			out[k] = conv
		default:
			out[k] = v
		}
	}
	return out
}

// WrapArraySchema wraps a top-level array schema in an object with a single
// "items" property, for providers that require an object root.
func WrapArraySchema(schema map[string]any) (map[string]any, bool) {
	if t, _ := schema["type"].(string); t != "array" {
		return schema, false
	}
	return objectOf(map[string]any{"items": schema}, "items"), true
}
