package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeDeclareAndGet(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", ObjectID(1))

	id, ok := root.Get("x")
	assert.True(t, ok)
	assert.Equal(t, ObjectID(1), id)
}

func TestScopeGetWalksToParent(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", ObjectID(1))
	child := NewScope(root)

	id, ok := child.Get("x")
	assert.True(t, ok)
	assert.Equal(t, ObjectID(1), id)
}

func TestScopeDeclareShadowsParent(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", ObjectID(1))
	child := NewScope(root)
	child.Declare("x", ObjectID(2))

	childID, _ := child.Get("x")
	rootID, _ := root.Get("x")
	assert.Equal(t, ObjectID(2), childID)
	assert.Equal(t, ObjectID(1), rootID)
}

func TestScopeGetMissingReturnsFalse(t *testing.T) {
	root := NewScope(nil)
	_, ok := root.Get("missing")
	assert.False(t, ok)
}

// Assigning an undeclared name installs it in the current scope rather
// than failing - an intentional behavior, not a bug (see DESIGN.md's
// Open Question decisions).
func TestScopeAssignToUndeclaredNameDeclaresLocally(t *testing.T) {
	root := NewScope(nil)
	root.Assign("x", ObjectID(9))

	id, ok := root.Get("x")
	assert.True(t, ok)
	assert.Equal(t, ObjectID(9), id)
}

func TestScopeAssignUpdatesNearestEnclosingBinding(t *testing.T) {
	root := NewScope(nil)
	root.Declare("x", ObjectID(1))
	child := NewScope(root)

	child.Assign("x", ObjectID(2))

	rootID, _ := root.Get("x")
	assert.Equal(t, ObjectID(2), rootID, "Assign should update the outer binding in place")
	_, ok := child.symbols["x"]
	assert.False(t, ok, "Assign must not shadow-declare in the inner scope when an outer binding exists")
}

func TestScopeMethodLookup(t *testing.T) {
	root := NewScope(nil)
	root.SetMethod(NumClassID, "add", ObjectID(42))

	child := NewScope(root)
	id, ok := child.Method(NumClassID, "add")
	assert.True(t, ok)
	assert.Equal(t, ObjectID(42), id)

	_, ok = child.Method(NumClassID, "sub")
	assert.False(t, ok)
}

func TestScopeMethodDoesNotLeakAcrossClasses(t *testing.T) {
	root := NewScope(nil)
	root.SetMethod(NumClassID, "add", ObjectID(1))

	_, ok := root.Method(BoolClassID, "add")
	assert.False(t, ok)
}
