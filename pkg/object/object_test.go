package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllocAssignsSequentialIDs(t *testing.T) {
	mem := NewMemory()
	a := mem.Alloc(NewClass("Point"))
	b := mem.Alloc(NewPrimitive(NumClassID, 3))
	assert.Equal(t, ObjectID(0), a)
	assert.Equal(t, ObjectID(1), b)
}

func TestMemoryGetDanglingIDPanics(t *testing.T) {
	mem := NewMemory()
	assert.Panics(t, func() { mem.Get(ObjectID(0)) })
}

func TestMemorySetFieldMutatesInstance(t *testing.T) {
	mem := NewMemory()
	classID := mem.Alloc(NewClass("Point"))
	valueID := mem.Alloc(NewPrimitive(NumClassID, 1))
	instID := mem.Alloc(NewInstance(classID, map[string]ObjectID{"x": valueID}))

	newValueID := mem.Alloc(NewPrimitive(NumClassID, 2))
	mem.SetField(instID, "x", newValueID)

	inst := mem.Get(instID)
	require.Equal(t, newValueID, inst.Fields["x"])
}

func TestMemorySetFieldOnNonInstancePanics(t *testing.T) {
	mem := NewMemory()
	classID := mem.Alloc(NewClass("Point"))
	assert.Panics(t, func() { mem.SetField(classID, "x", ObjectID(0)) })
}

func TestClassIDOfPanicsForClassAndFunction(t *testing.T) {
	assert.Panics(t, func() { NewClass("Point").ClassIDOf() })
	assert.Panics(t, func() { NewFunction("f", nil, nil, NativeBody{}).ClassIDOf() })
}

func TestClassIDOfForPrimitiveAndInstance(t *testing.T) {
	assert.Equal(t, NumClassID, NewPrimitive(NumClassID, 1).ClassIDOf())
	inst := NewInstance(ObjectID(5), nil)
	assert.Equal(t, ObjectID(5), inst.ClassIDOf())
}

func TestReservedClassIDConvention(t *testing.T) {
	mem := NewMemory()
	nilID := mem.Alloc(NewClass("Nil"))
	boolID := mem.Alloc(NewClass("Bool"))
	numID := mem.Alloc(NewClass("Num"))
	assert.Equal(t, NilClassID, nilID)
	assert.Equal(t, BoolClassID, boolID)
	assert.Equal(t, NumClassID, numID)
}
