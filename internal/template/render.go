package template

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

// Context maps placeholder names to values.
type Context map[string]string

// NewContext builds a context that always carries project_name.
func NewContext(projectName string, extra map[string]string) Context {
	ctx := Context{}
	for k, v := range extra {
		ctx[k] = v
	}
	ctx["project_name"] = projectName
	return ctx
}

// ContextFromMap converts loosely typed values: nil becomes "", anything that
// is not a string is formatted with fmt.
func ContextFromMap(m map[string]any) Context {
	ctx := make(Context, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			ctx[k] = ""
		case string:
			ctx[k] = t
		default:
			ctx[k] = fmt.Sprint(t)
		}
	}
	return ctx
}

var funcs = template.FuncMap{
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
	"title":   title,
	"trim":    strings.TrimSpace,
	"replace": func(old, new, s string) string { return strings.ReplaceAll(s, old, new) },
	"default": func(def, v string) string {
		if v == "" {
			return def
		}
		return v
	},
	"snake": func(s string) string { return joinWords(s, "_") },
	"kebab": func(s string) string { return joinWords(s, "-") },
}

var keywords = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true, "define": true,
	"block": true, "template": true, "break": true, "continue": true,
	"and": true, "or": true, "not": true, "eq": true, "ne": true, "lt": true, "le": true,
	"gt": true, "ge": true, "len": true, "index": true, "print": true, "printf": true,
	"println": true, "html": true, "js": true, "urlquery": true, "slice": true, "call": true,
	"true": true, "false": true, "nil": true,
}

func isReserved(word string) bool {
	if keywords[word] {
		return true
	}
	_, ok := funcs[word]
	return ok
}

var (
	actionPattern   = regexp.MustCompile(`(?s)\{\{(-?\s*)(.*?)(\s*-?)\}\}`)
	leftoverPattern = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	simplePattern   = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

// Render substitutes placeholders in text. Bare names such as {{name}} read
// from the context and missing names render empty. Text that does not parse
// or execute as a template falls back to plain {{name}} replacement with every
// other action removed. Values are inserted as is, braces included.
func (c Context) Render(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	if out, err := c.execute(text); err == nil {
		return out
	}
	return leftoverPattern.ReplaceAllStringFunc(text, func(action string) string {
		if m := simplePattern.FindStringSubmatch(action); m != nil && m[0] == action {
			return c[m[1]]
		}
		return ""
	})
}

func (c Context) execute(text string) (string, error) {
	rewritten := actionPattern.ReplaceAllStringFunc(text, func(action string) string {
		m := actionPattern.FindStringSubmatch(action)
		return "{{" + m[1] + qualifyNames(m[2]) + m[3] + "}}"
	})
	tmpl, err := template.New("content").Option("missingkey=zero").Funcs(funcs).Parse(rewritten)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(c)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// qualifyNames prefixes bare identifiers in an action with a dot so they
// index the context. Quoted strings, fields, variables, keywords and
// function names are left alone.
func qualifyNames(action string) string {
	if strings.HasPrefix(strings.TrimSpace(action), "/*") {
		return action
	}
	var b strings.Builder
	runes := []rune(action)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '`' || r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\\' && r != '`' {
					j++
				}
				j++
			}
			if j >= len(runes) {
				j = len(runes) - 1
			}
			b.WriteString(string(runes[i : j+1]))
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			prev := rune(0)
			if i > 0 {
				prev = runes[i-1]
			}
			if prev != '.' && prev != '$' && !isReserved(word) {
				b.WriteRune('.')
			}
			b.WriteString(word)
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func joinWords(s, sep string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return strings.Join(words, sep)
}
