package analysis

import "encoding/json"

// ExtractJSONObject finds the first balanced {...} span in free-form text
// that parses as a JSON object. Models often wrap their JSON answer in
// prose, so a plain unmarshal of the whole response is not enough. The
// scanner tracks brace depth outside of string literals; spans that fail
// to parse are skipped and the scan resumes at the next opening brace.
func ExtractJSONObject(text string) (json.RawMessage, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchBrace(text, start)
		if !ok {
			// Unbalanced opener, often prose. Keep scanning; a later
			// opener may still start a well-formed object.
			continue
		}
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return json.RawMessage(span), true
		}
		start = end
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
