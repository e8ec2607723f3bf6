package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/neuraruet/assistant-go/internal/errors"
)

// DecodeLoose parses model output that should be a single JSON object but
// often is not quite: code fences, prose before or after the object, or both.
// Recovery order: direct parse, fence-stripped parse, first balanced {...}
// substring. Total failure returns ErrExtractionParse.
func DecodeLoose(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("empty model output: %w", apperrors.ErrExtractionParse)
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	if stripped := stripCodeFence(s); stripped != s {
		if err := json.Unmarshal([]byte(stripped), v); err == nil {
			return nil
		}
		s = stripped
	}

	if obj := firstJSONObject(s); obj != "" {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON object in model output: %w", apperrors.ErrExtractionParse)
}

// stripCodeFence removes a surrounding ``` or ```json fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// firstJSONObject scans for the first balanced top-level {...} substring,
// ignoring braces inside JSON strings.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
