package diagnostics

import (
	"bytes"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiquetorres/lumi/pkg/emitter"
	"github.com/caiquetorres/lumi/pkg/parser"
	"github.com/caiquetorres/lumi/pkg/span"
	"github.com/caiquetorres/lumi/pkg/vm"
)

func TestDiagnosticsAddAndHasErrors(t *testing.T) {
	var diags Diagnostics
	assert.False(t, diags.HasErrors())

	sc := span.NewSourceCode("test.lumi", "let x = 1;")
	diags.Add(sc.Slice(0, 3), "unexpected %s", "token")

	assert.True(t, diags.HasErrors())
	items := diags.All()
	assert.Len(t, items, 1)
	assert.Equal(t, "unexpected token", items[0].Message)
}

func TestRenderPlainIncludesMessageAndLocation(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", "let x = ;")
	sp := sc.Slice(8, 9)

	var buf bytes.Buffer
	Render(&buf, []Diagnostic{{Message: "unexpected token", Sp: sp}}, false)

	out := buf.String()
	assert.Contains(t, out, "error: unexpected token")
	assert.Contains(t, out, "--> test.lumi:1:9")
	assert.Contains(t, out, "let x = ;")
}

func TestRenderSourceLineUnderlinesSpanWidth(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", "let xx = 1;")
	sp := sc.Slice(4, 6) // "xx"

	var buf bytes.Buffer
	Render(&buf, []Diagnostic{{Message: "bad", Sp: sp}}, false)

	assert.Contains(t, buf.String(), "    ^^")
}

func TestRenderColorizedContainsAnsiCodes(t *testing.T) {
	// fatih/color disables escapes when it detects a non-terminal output
	// (as in a test binary); force it on for the duration of this test.
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	sc := span.NewSourceCode("test.lumi", "x")
	sp := sc.Slice(0, 1)

	var buf bytes.Buffer
	Render(&buf, []Diagnostic{{Message: "bad", Sp: sp}}, true)

	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRenderRuntimeErrorIncludesTrace(t *testing.T) {
	sc := span.NewSourceCode("test.lumi", `
		fun inner() { return undefined; }
		fun outer() { return inner(); }
		outer();
	`)
	prog, err := parser.New(sc).Parse()
	require.NoError(t, err)
	chunk, err := emitter.Emit(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.New(&out, vm.NewLogger(io.Discard))
	runErr := machine.Run(chunk)
	require.Error(t, runErr)
	rtErr, ok := runErr.(*vm.RuntimeError)
	require.True(t, ok)

	var buf bytes.Buffer
	RenderRuntimeError(&buf, rtErr, false)

	rendered := buf.String()
	assert.Contains(t, rendered, "symbol not found")
	assert.Contains(t, rendered, "at inner")
	assert.Contains(t, rendered, "at outer")
}
