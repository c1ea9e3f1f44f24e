package vm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiquetorres/lumi/pkg/emitter"
	"github.com/caiquetorres/lumi/pkg/parser"
	"github.com/caiquetorres/lumi/pkg/span"
)

// run compiles and executes src against a fresh VM, returning everything
// written to stdout.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	sc := span.NewSourceCode("test.lumi", src)
	prog, err := parser.New(sc).Parse()
	require.NoError(t, err)
	chunk, err := emitter.Emit(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := New(&out, NewLogger(io.Discard))
	runErr := machine.Run(chunk)
	return out.String(), runErr
}

func TestArithmetic(t *testing.T) {
	out, err := run(t, "println 1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestArithmeticLeftBeforeRight(t *testing.T) {
	out, err := run(t, "println (1 + 2) * 3;")
	require.NoError(t, err)
	assert.Equal(t, "9\n", out)
}

func TestBoolAndNilPrinting(t *testing.T) {
	out, err := run(t, `
		println true;
		println false;
		println nil;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\nfalse\nnil\n", out)
}

func TestComparisonOperators(t *testing.T) {
	out, err := run(t, `
		println 1 < 2;
		println 2 > 1;
		println 1 == 1;
		println 1 != 2;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\ntrue\ntrue\ntrue\n", out)
}

func TestVariableDeclarationAndAssignment(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		x = x + 1;
		println x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestAssignmentIsAnExpression(t *testing.T) {
	out, err := run(t, `
		let x = 1;
		println x = 5;
		println x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n5\n", out)
}

func TestFunctionCallAndReturn(t *testing.T) {
	out, err := run(t, `
		fun add(a, b) { return a + b; }
		println add(1, 2);
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestFunctionImplicitReturnIsNil(t *testing.T) {
	out, err := run(t, `
		fun noop() { let x = 1; }
		println noop();
	`)
	require.NoError(t, err)
	assert.Equal(t, "nil\n", out)
}

func TestClosureCapturesDeclarationScope(t *testing.T) {
	out, err := run(t, `
		let x = 10;
		fun readX() { return x; }
		{
			let x = 20;
			println readX();
		}
	`)
	require.NoError(t, err)
	// readX closed over the root scope when it was declared; the block's
	// own `x` shadows it locally but cannot affect the captured scope.
	assert.Equal(t, "10\n", out)
}

func TestClassInstantiationAndFieldAccess(t *testing.T) {
	out, err := run(t, `
		class Point { x, y }
		let p = Point { x: 1, y: 2 };
		println p.x;
		println p.y;
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestClassLiteralBareFieldShorthand(t *testing.T) {
	out, err := run(t, `
		class Point { x, y }
		let x = 3;
		let y = 4;
		let p = Point { x, y };
		println p.x;
		println p.y;
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n4\n", out)
}

func TestFieldAssignmentMutatesInstance(t *testing.T) {
	out, err := run(t, `
		class Point { x }
		let p = Point { x: 1 };
		p.x = 2;
		println p.x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestMethodCallBindsThisAndThis(t *testing.T) {
	out, err := run(t, `
		class Point { x }
		impl Point {
			fun getX() { return this.x; }
		}
		let p = Point { x: 42 };
		println p.getX();
	`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestIfStatementSkipsFalsyBranch(t *testing.T) {
	out, err := run(t, `
		let ran = false;
		if false {
			ran = true;
		}
		println ran;
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestIfStatementRunsTruthyBranch(t *testing.T) {
	out, err := run(t, `
		let ran = false;
		if true {
			ran = true;
		}
		println ran;
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestSymbolNotFoundRaisesRuntimeError(t *testing.T) {
	_, err := run(t, "println undefined;")
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, SymbolNotFound, rtErr.Kind)
	assert.Equal(t, "undefined", rtErr.Name)
}

func TestCannotReadPropertyRaisesRuntimeError(t *testing.T) {
	_, err := run(t, `
		class Point { x }
		let p = Point { x: 1 };
		println p.missing;
	`)
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, CannotReadProperty, rtErr.Kind)
}

func TestCallingNonFunctionRaisesRuntimeError(t *testing.T) {
	_, err := run(t, `
		let x = 1;
		x();
	`)
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, SymbolNotCallable, rtErr.Kind)
}

func TestInstantiatingNonClassRaisesRuntimeError(t *testing.T) {
	_, err := run(t, `
		let x = 1;
		let y = x { a: 1 };
	`)
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, InvalidInstantiation, rtErr.Kind)
}

func TestRuntimeErrorCarriesCallStackTrace(t *testing.T) {
	_, err := run(t, `
		fun inner() { return undefined; }
		fun outer() { return inner(); }
		outer();
	`)
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	require.Len(t, rtErr.Trace, 2)
	assert.Equal(t, "inner", rtErr.Trace[0].FunctionName)
	assert.Equal(t, "outer", rtErr.Trace[1].FunctionName)
}

func TestNativeClockReturnsNumber(t *testing.T) {
	out, err := run(t, "println clock() > -1;")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestRunCanBeCalledRepeatedlyAgainstSameVM(t *testing.T) {
	sc1 := span.NewSourceCode("one.lumi", "let x = 1;")
	prog1, err := parser.New(sc1).Parse()
	require.NoError(t, err)
	chunk1, err := emitter.Emit(prog1)
	require.NoError(t, err)

	sc2 := span.NewSourceCode("two.lumi", "println x + 1;")
	prog2, err := parser.New(sc2).Parse()
	require.NoError(t, err)
	chunk2, err := emitter.Emit(prog2)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := New(&out, NewLogger(io.Discard))
	require.NoError(t, machine.Run(chunk1))
	require.NoError(t, machine.Run(chunk2))
	assert.Equal(t, "2\n", out.String())
}
