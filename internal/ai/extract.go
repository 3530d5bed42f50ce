package ai

import (
	"encoding/json"
	"strconv"
	"strings"
)

func parseJSONObject(input []byte) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	var result map[string]any
	if err := json.Unmarshal(input, &result); err != nil || result == nil {
		return map[string]any{}
	}
	return result
}

// extractResponseText concatenates output[].content[].text, newline separated.
func extractResponseText(data map[string]any) string {
	if direct := strings.TrimSpace(toString(data["output_text"])); direct != "" {
		return direct
	}

	outputs, ok := data["output"].([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(outputs))
	for _, item := range outputs {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		contentList, ok := block["content"].([]any)
		if !ok {
			continue
		}
		for _, contentItem := range contentList {
			contentMap, ok := contentItem.(map[string]any)
			if !ok {
				continue
			}
			contentType := strings.ToLower(strings.TrimSpace(toString(contentMap["type"])))
			if contentType != "" && contentType != "output_text" && contentType != "text" {
				continue
			}
			if text := extractTextValue(contentMap); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func extractTextValue(content map[string]any) string {
	if text := strings.TrimSpace(toString(content["text"])); text != "" {
		return text
	}
	if textMap, ok := content["text"].(map[string]any); ok {
		return strings.TrimSpace(toString(textMap["value"]))
	}
	return ""
}

func isMaxOutputTokenIncomplete(parsed map[string]any) bool {
	details, ok := parsed["incomplete_details"].(map[string]any)
	if !ok {
		return false
	}
	return strings.ToLower(strings.TrimSpace(toString(details["reason"]))) == "max_output_tokens"
}

func extractNumber(data map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func truncateForLog(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "...(truncated)"
}
