package rest

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

// reservedTemplateWords are text/template's own keywords and built-in
// functions: a bare word matching one of these is left alone by
// rewriteBareIdentifiers rather than turned into a field access, since it's
// a control keyword or function call, not a Context reference.
var reservedTemplateWords = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true,
	"define": true, "template": true, "block": true, "break": true, "continue": true,
	"true": true, "false": true, "nil": true,
	"and": true, "or": true, "not": true,
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
	"len": true, "index": true, "slice": true, "call": true,
	"print": true, "printf": true, "println": true,
	"html": true, "js": true, "urlquery": true,
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStartByte(c) || (c >= '0' && c <= '9')
}

// rewriteBareIdentifiers rewrites every "{{ ... }}" action in tmpl so that a
// bare top-level identifier path (e.g. "missing", "missing.path",
// "results.test.device1.ip") is prefixed with a leading "." before parsing.
//
// text/template requires a leading "." for every Context field access; a
// bare identifier instead parses as a function name and fails to parse at
// all ("function %q not defined") unless it happens to be a registered
// built-in. But spec.md's own literal examples write bare identifiers
// ("{{ missing.path }}", "{{ results.test.device1.ip }}"), matching the
// original implementation's tera templates, which don't require a leading
// dot. This shim lets both spellings work without swapping engines.
//
// Text outside "{{ }}" delimiters, and anything inside a double-quoted
// string literal within an action, is left untouched.
func rewriteBareIdentifiers(tmpl string) string {
	var out bytes.Buffer

	i := 0
	for i < len(tmpl) {
		start := indexAction(tmpl, i)
		if start < 0 {
			out.WriteString(tmpl[i:])
			break
		}

		end := findActionEnd(tmpl, start)
		if end < 0 {
			out.WriteString(tmpl[i:])
			break
		}

		out.WriteString(tmpl[i:start])
		out.WriteString(rewriteAction(tmpl[start:end]))
		i = end
	}

	return out.String()
}

// indexAction returns the index of the next "{{" at or after i, or -1.
func indexAction(s string, i int) int {
	for ; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			return i
		}
	}
	return -1
}

// findActionEnd returns the index just past the "}}" closing the action
// that starts at start, or -1 if unterminated.
func findActionEnd(s string, start int) int {
	for i := start + 2; i+1 < len(s); i++ {
		if s[i] == '}' && s[i+1] == '}' {
			return i + 2
		}
	}
	return -1
}

// rewriteAction rewrites bare identifier chains within one "{{ ... }}"
// action, leaving delimiters, operators, quoted string literals, numbers,
// "$"-variables, already-dotted paths, and reserved words untouched.
func rewriteAction(action string) string {
	var out bytes.Buffer

	i := 0
	for i < len(action) {
		c := action[i]

		if c == '"' {
			j := i + 1
			for j < len(action) {
				if action[j] == '\\' && j+1 < len(action) {
					j += 2
					continue
				}
				if action[j] == '"' {
					j++
					break
				}
				j++
			}
			out.WriteString(action[i:j])
			i = j
			continue
		}

		if isIdentStartByte(c) {
			j := i
			for j < len(action) {
				if isIdentByte(action[j]) {
					j++
					continue
				}
				if action[j] == '.' && j+1 < len(action) && isIdentStartByte(action[j+1]) {
					j++
					continue
				}
				break
			}
			word := action[i:j]

			prev := byte(0)
			if i > 0 {
				prev = action[i-1]
			}
			if !reservedTemplateWords[word] && prev != '.' && prev != '$' {
				out.WriteByte('.')
			}
			out.WriteString(word)
			i = j
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String()
}

// Engine expands string leaves of a YAML/JSON-shaped value tree against a
// Context, the way the original implementation's tera adapter does
// (original_source/src/sources/rest.rs, "expand_templates"). Only string
// leaves are templated; every other leaf (null, bool, number) passes
// through unchanged, and mapping keys are never templated.
//
// text/template is the stdlib choice here because no third-party templating
// library appears anywhere in the retrieval pack (see SPEC_FULL.md's domain
// stack table); its {{ }} delimiter syntax is carried over unchanged from
// the original's tera templates since spec.md's examples already use it.
// rewriteBareIdentifiers bridges the one syntax gap that remains: tera (and
// spec.md's own examples) write bare identifiers ("results.x"), while
// text/template requires a leading dot (".results.x").
type Engine struct {
	// Strict, if true, makes an undefined variable reference a template
	// expansion error. If false, text/template's default behavior (render
	// as "<no value>") is used, matching the permissive, best-effort
	// templating the original config format tolerates by default.
	Strict bool
}

// NewEngine returns an Engine with the given strictness.
func NewEngine(strict bool) *Engine {
	return &Engine{Strict: strict}
}

// ExpandString runs text/template over s with data, then reparses the
// rendered output as a YAML scalar or structure so that, e.g., a template
// that renders "[1, 2, 3]" becomes a three-element sequence rather than a
// literal string (spec.md §4.1).
func (e *Engine) ExpandString(s string, data any) (any, error) {
	opt := "missingkey=default"
	if e.Strict {
		opt = "missingkey=error"
	}

	tmpl, err := template.New("value").Option(opt).Parse(rewriteBareIdentifiers(s))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	rendered := buf.String()

	var out any
	if err := yaml.Unmarshal([]byte(rendered), &out); err != nil {
		// Not parseable as YAML/JSON; keep it as the rendered string, the
		// common case for ordinary text values.
		return rendered, nil
	}

	return out, nil
}

// Expand walks v recursively, expanding every string leaf with
// ExpandString and leaving every other value kind untouched. Mapping keys
// are copied as-is; only values are templated.
func (e *Engine) Expand(v any, data any) (any, error) {
	switch t := v.(type) {
	case string:
		return e.ExpandString(t, data)

	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			expanded, err := e.Expand(item, data)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = expanded
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			expanded, err := e.Expand(item, data)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = expanded
		}
		return out, nil

	default:
		// nil, bool, int, float64: pass through unchanged.
		return v, nil
	}
}
