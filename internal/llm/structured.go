package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON extracts a JSON object of type T from raw model output.
// Markdown fences, prose around the object, comments and ".5"-style numbers
// are tolerated. If validator is non-nil, the value is validated before it
// is returned.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	block := extractJSONBlock(stripCodeFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}
	block = normalizeLeadingDecimalNumbers(stripJSONComments(block))

	var result T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// Required fails when a required field was absent from the decoded object.
func Required[T any](name string, v *T) error {
	if v == nil {
		return fmt.Errorf("missing required field %q", name)
	}
	return nil
}

// stripCodeFences drops markdown fence lines and keeps everything else.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// stringTracker follows whether a byte-wise scan is inside a JSON string.
type stringTracker struct {
	inString bool
	escaped  bool
}

// step consumes c and reports whether it belongs to a string literal,
// including the quotes.
func (t *stringTracker) step(c byte) bool {
	switch {
	case t.escaped:
		t.escaped = false
		return true
	case t.inString && c == '\\':
		t.escaped = true
		return true
	case c == '"':
		t.inString = !t.inString
		return true
	default:
		return t.inString
	}
}

// extractJSONBlock finds the first balanced { ... } block in the text.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	var tr stringTracker
	depth := 0
	for i := start; i < len(s); i++ {
		if tr.step(s[i]) {
			continue
		}
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// stripJSONComments removes // and /* */ comments outside string values.
// Models sometimes annotate their JSON despite instructions.
func stripJSONComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var tr stringTracker
	for i := 0; i < len(s); i++ {
		c := s[i]
		if tr.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i+1 < len(s) && s[i+1] != '\n' {
					i++
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end == -1 {
					return b.String()
				}
				i += 2 + end + 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// normalizeLeadingDecimalNumbers rewrites ".8" and "-.3" into "0.8" and
// "-0.3" outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	var tr stringTracker
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !tr.step(c) && c == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			b.WriteByte('0')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\n' && s[i] != '\r' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
