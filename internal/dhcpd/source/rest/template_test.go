package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ExpandString_PlainText(t *testing.T) {
	e := NewEngine(false)
	out, err := e.ExpandString("hello {{.name}}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestEngine_ExpandString_ReparsesSequence(t *testing.T) {
	e := NewEngine(false)
	out, err := e.ExpandString("[1, 2, 3]", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, out)
}

func TestEngine_ExpandString_StrictMissingKey(t *testing.T) {
	e := NewEngine(true)
	_, err := e.ExpandString("{{.missing}}", map[string]any{})
	assert.Error(t, err)
}

// TestEngine_ExpandString_BareIdentifier covers spec.md's literal template
// syntax, which writes plain "name" rather than text/template's required
// ".name". Before rewriteBareIdentifiers, this failed to parse at all
// ("function \"name\" not defined"); now it resolves against data exactly
// like the dot-prefixed form.
func TestEngine_ExpandString_BareIdentifier(t *testing.T) {
	e := NewEngine(false)
	out, err := e.ExpandString("{{ name }}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

// TestEngine_ExpandString_BareResultsChain restores the original
// implementation's own test template verbatim in spirit: a multi-segment
// bare path over the accumulated "results" map (spec.md §3/§4.4).
func TestEngine_ExpandString_BareResultsChain(t *testing.T) {
	e := NewEngine(false)
	data := map[string]any{
		"results": map[string]any{
			"test": map[string]any{
				"device1": map[string]any{
					"ip": "10.1.2.3",
				},
			},
		},
	}
	out, err := e.ExpandString("{{ results.test.device1.ip }}", data)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", out)
}

// TestEngine_ExpandString_StrictBareMissingKeyFails is scenario S5 with its
// literal bare-identifier spelling: a strict-mode template over a missing
// path fails the phase.
func TestEngine_ExpandString_StrictBareMissingKeyFails(t *testing.T) {
	e := NewEngine(true)
	_, err := e.ExpandString("{{ missing.path }}", map[string]any{})
	assert.Error(t, err)
}

// TestEngine_ExpandString_BareIdentifierInControlFlow confirms the
// preprocessing shim leaves text/template's own keywords and built-in
// functions (if/eq/else/end) alone while still prefixing the bare Context
// reference between them.
func TestEngine_ExpandString_BareIdentifierInControlFlow(t *testing.T) {
	e := NewEngine(false)
	out, err := e.ExpandString(`{{ if eq status "ok" }}yes{{ else }}no{{ end }}`, map[string]any{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "yes", out)
}

func TestEngine_Expand_NonStringLeavesPassThrough(t *testing.T) {
	e := NewEngine(false)
	v := map[string]any{
		"required": true,
		"count":    42,
		"name":     "{{.x}}",
	}
	out, err := e.Expand(v, map[string]any{"x": "y"})
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, true, m["required"])
	assert.Equal(t, 42, m["count"])
	assert.Equal(t, "y", m["name"])
}
