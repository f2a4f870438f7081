package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips markdown fences and surrounding prose from a model answer.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if json.Valid([]byte(cleaned)) {
		return cleaned
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

// DecodeJSON extracts and unmarshals the JSON object in text.
func DecodeJSON(text string, v any) error {
	raw := ExtractJSON(text)
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
