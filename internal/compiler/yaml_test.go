package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/ir"
)

func TestParseYAML(t *testing.T) {
	src := []byte(`nodes:
  - id: broadcaster
    kind: broadcaster
    destinations: [a, b]
  - id: a
    kind: flip-flop
    destinations: [c]
  - id: b
    kind: toggle
    destinations: [c]
  - id: c
    kind: conjunction
    destinations: [output]
`)
	decls, err := ParseYAML(src)
	require.NoError(t, err)
	require.Len(t, decls, 4)
	assert.Equal(t, ir.KindRelay, decls[0].Kind)
	assert.Equal(t, ir.KindToggle, decls[1].Kind)
	assert.Equal(t, ir.KindGate, decls[3].Kind)
	assert.Equal(t, []ir.NodeID{"a", "b"}, decls[0].Destinations)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("nodes:\n  - id: a\n    kind: relay\n    outputs: [b]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputs")

	_, err = ParseYAML([]byte("network: []\n"))
	require.Error(t, err)
}

func TestParseYAML_BadKindReportsLine(t *testing.T) {
	_, err := ParseYAML([]byte("nodes:\n  - id: a\n    kind: relay\n  - id: b\n    kind: wire\n"))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "kind", ce.Field)
	assert.Equal(t, 4, ce.Line)
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML(nil)
	require.Error(t, err)
}

func TestRenderYAML_ParsesBack(t *testing.T) {
	decls := []ir.NodeDecl{
		{ID: "broadcaster", Kind: ir.KindRelay, Destinations: []ir.NodeID{"a"}},
		{ID: "a", Kind: ir.KindToggle, Destinations: []ir.NodeID{"inv", "con"}},
		{ID: "idle", Kind: ir.KindGate, Destinations: []ir.NodeID{}},
	}

	data, err := RenderYAML(decls)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: broadcaster")

	got, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, decls[1], got[1])
	assert.Empty(t, got[2].Destinations)
}
