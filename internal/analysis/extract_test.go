package analysis

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONObjectBare(t *testing.T) {
	raw, ok := ExtractJSONObject(`{"clips": []}`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if string(raw) != `{"clips": []}` {
		t.Fatalf("unexpected span %q", raw)
	}
}

func TestExtractJSONObjectWrappedInProse(t *testing.T) {
	text := "Sure! Here is the analysis you asked for:\n\n" +
		`{"clips": [{"title": "A"}]}` +
		"\n\nLet me know if you need anything else."
	raw, ok := ExtractJSONObject(text)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("extracted span is not valid JSON: %v", err)
	}
	if _, found := obj["clips"]; !found {
		t.Fatalf("extracted span lost the clips field: %s", raw)
	}
}

func TestExtractJSONObjectHandlesBracesInStrings(t *testing.T) {
	text := `{"title": "use {curly} braces \" here", "n": 1}`
	raw, ok := ExtractJSONObject(text)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("extracted span is not valid JSON: %v", err)
	}
	if obj["n"] != float64(1) {
		t.Fatalf("unexpected object %v", obj)
	}
}

func TestExtractJSONObjectSkipsInvalidSpan(t *testing.T) {
	// First balanced span is not JSON; a later one is.
	text := `{not json} but then {"ok": true}`
	raw, ok := ExtractJSONObject(text)
	if !ok {
		t.Fatal("expected extraction to find the second span")
	}
	if string(raw) != `{"ok": true}` {
		t.Fatalf("unexpected span %q", raw)
	}
}

func TestExtractJSONObjectNone(t *testing.T) {
	for _, text := range []string{"", "no braces here", "{never closed", "}{"} {
		if _, ok := ExtractJSONObject(text); ok {
			t.Fatalf("expected no extraction for %q", text)
		}
	}
}
