package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/santiagomed/devspark/internal/result"
)

var fencePattern = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n?(.*?)```")

// candidates lists the texts worth parsing, in the order they are tried:
// fenced blocks, then each top-level balanced {...} span, then the whole text.
func candidates(raw string) []string {
	var out []string
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if body := strings.TrimSpace(m[2]); body != "" {
			out = append(out, body)
		}
	}
	out = append(out, objectSpans(raw)...)
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		out = append(out, trimmed)
	}
	return dedupe(out)
}

// objectSpans returns every top-level balanced {...} span. Braces inside
// double-quoted or backtick-quoted strings do not count. A brace that never
// closes is skipped and scanning resumes at the next one.
func objectSpans(s string) []string {
	var spans []string
	for i := 0; i < len(s); {
		open := strings.IndexByte(s[i:], '{')
		if open < 0 {
			break
		}
		start := i + open
		if end := closingBrace(s, start); end >= 0 {
			spans = append(spans, s[start:end+1])
			i = end + 1
		} else {
			i = start + 1
		}
	}
	return spans
}

// closingBrace returns the index of the brace that closes the one at start,
// or -1.
func closingBrace(s string, start int) int {
	depth := 0
	var quote rune
	escaped := false
	for i, r := range s[start:] {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '`':
			quote = r
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start + i
			}
		}
	}
	return -1
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// parseObject parses text as a JSON object, first as is, then after
// rewriting backtick strings, then after wrapping bare file pairs.
func parseObject(text string) (map[string]json.RawMessage, bool) {
	if obj, ok := decodeObject(text); ok {
		return obj, true
	}
	repaired := repairBackticks(text)
	if repaired != text {
		if obj, ok := decodeObject(repaired); ok {
			return obj, true
		}
	}
	if wrapped, ok := wrapBarePairs(repaired); ok {
		return decodeObject(wrapped)
	}
	return nil, false
}

func decodeObject(text string) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return obj, true
}

// repairBackticks rewrites `...` values that follow a property colon into
// escaped JSON strings.
func repairBackticks(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	var b strings.Builder
	inString, escaped := false, false
	lastSignificant := rune(0)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
				lastSignificant = '"'
			}
			continue
		}
		if r == '`' && lastSignificant == ':' {
			end, body := scanBacktick(runes, i+1)
			if end >= 0 {
				q, err := marshalString(body)
				if err == nil {
					b.Write(q)
					i = end
					lastSignificant = '"'
					continue
				}
			}
		}
		b.WriteRune(r)
		if r == '"' {
			inString = true
		}
		if !unicode.IsSpace(r) {
			lastSignificant = r
		}
	}
	return b.String()
}

// scanBacktick finds the closing backtick starting at from and returns its
// index with the unescaped body, or -1.
func scanBacktick(runes []rune, from int) (int, string) {
	var body strings.Builder
	for j := from; j < len(runes); j++ {
		switch runes[j] {
		case '\\':
			if j+1 < len(runes) && runes[j+1] == '`' {
				body.WriteRune('`')
				j++
				continue
			}
			body.WriteRune('\\')
		case '`':
			return j, body.String()
		default:
			body.WriteRune(runes[j])
		}
	}
	return -1, ""
}

var schemaKeys = map[string]bool{
	"files": true, "directories": true, "directory_structure": true, "files_to_create": true,
}

// wrapBarePairs turns a run of "path": "content" members with no enclosing
// object into a current-shape plan.
func wrapBarePairs(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ","))
	if s == "" || s[0] != '"' {
		return "", false
	}
	var files FileMap
	if err := json.Unmarshal([]byte("{"+s+"}"), &files); err != nil || len(files) == 0 {
		return "", false
	}
	for _, f := range files {
		if f.Path == "" || schemaKeys[f.Path] || strings.IndexFunc(f.Path, unicode.IsSpace) >= 0 {
			return "", false
		}
	}
	b, err := json.Marshal(CurrentPlan{Files: files, Directories: []Directory{}})
	if err != nil {
		return "", false
	}
	return string(b), true
}

func hasSchema(obj map[string]json.RawMessage, s Schema) bool {
	keys := s.Keys()
	_, a := obj[keys[0]]
	_, b := obj[keys[1]]
	return a && b
}

// Extract pulls a plan out of a model completion. The first candidate that
// parses and carries either schema wins; a parsed object with neither is an
// InvalidStructure error and text with no parsable object is a
// JSONDecodeError. Both keep the raw text.
func Extract(raw string, want Schema) (Document, error) {
	var fallback map[string]json.RawMessage
	for _, c := range candidates(raw) {
		obj, ok := parseObject(c)
		if !ok {
			continue
		}
		if hasSchema(obj, want) || hasSchema(obj, want.Other()) {
			return decodeSchema(obj, want, raw)
		}
		if fallback == nil {
			fallback = obj
		}
	}
	if fallback != nil {
		return Document{}, result.WithRaw(result.TypeInvalidStructure,
			fmt.Sprintf("response has neither %s nor %s keys", keyList(SchemaCurrent), keyList(SchemaLegacy)), raw)
	}
	return Document{}, result.WithRaw(result.TypeJSONDecode, "no JSON object could be parsed from the response", raw)
}

func keyList(s Schema) string {
	k := s.Keys()
	return k[0] + "+" + k[1]
}

func decodeSchema(obj map[string]json.RawMessage, want Schema, raw string) (Document, error) {
	s := want
	if !hasSchema(obj, want) {
		s = want.Other()
	}
	b, _ := json.Marshal(obj)
	doc, err := decodeAs(b, s)
	if err != nil {
		return Document{}, result.WithRaw(result.TypeInvalidStructure, fmt.Sprintf("malformed %s plan: %v", s, err), raw)
	}
	return doc, nil
}

func decodeAs(b []byte, s Schema) (Document, error) {
	if s == SchemaLegacy {
		var l LegacyPlan
		if err := json.Unmarshal(b, &l); err != nil {
			return Document{}, err
		}
		return FromLegacy(l), nil
	}
	var c CurrentPlan
	if err := json.Unmarshal(b, &c); err != nil {
		return Document{}, err
	}
	return FromCurrent(c), nil
}

// ExtractObject returns the first JSON object found in raw, using the same
// candidate order and repairs as Extract.
func ExtractObject(raw string) (json.RawMessage, error) {
	for _, c := range candidates(raw) {
		if obj, ok := parseObject(c); ok {
			b, err := json.Marshal(obj)
			if err != nil {
				break
			}
			return b, nil
		}
	}
	return nil, result.WithRaw(result.TypeJSONDecode, "no JSON object could be parsed from the response", raw)
}

// Decode reads a stored plan leniently: either shape, or both at once, are
// accepted and merged with legacy entries first.
func Decode(b []byte) (Document, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(b), &obj); err != nil {
		return Document{}, result.WithRaw(result.TypeJSONDecode, err.Error(), string(b))
	}

	var legacy LegacyPlan
	var current CurrentPlan
	_, hasDirs := obj["directory_structure"]
	_, hasMap := obj["files_to_create"]
	_, hasFiles := obj["files"]
	_, hasNested := obj["directories"]
	if !hasDirs && !hasMap && !hasFiles && !hasNested {
		return Document{}, result.WithRaw(result.TypeInvalidStructure, "plan has no recognizable keys", string(b))
	}
	if err := json.Unmarshal(b, &legacy); err != nil {
		return Document{}, result.WithRaw(result.TypeInvalidStructure, err.Error(), string(b))
	}
	if err := json.Unmarshal(b, &current); err != nil {
		return Document{}, result.WithRaw(result.TypeInvalidStructure, err.Error(), string(b))
	}

	source := SchemaCurrent
	if (hasDirs || hasMap) && !(hasFiles || hasNested) {
		source = SchemaLegacy
	}
	doc := FromLegacy(legacy).Merge(FromCurrent(current))
	doc.Source = source
	return doc, nil
}
