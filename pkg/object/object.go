// Package object implements Lumi's heap: the tagged Object representation
// and the append-only Memory container that addresses objects by stable
// integer id.
//
// Architecture:
//
// Every value that a running program can reference - a class, a boxed
// number or boolean, a user-defined instance, or a function - is an
// Object living in a Memory, addressed by an ObjectID that never moves
// once allocated. Stacks, scopes, and instance fields all hold ObjectIDs
// rather than Objects directly, so copying an id is cheap and aliasing is
// explicit: two references to the same id see the same mutable object.
//
// Three ids are reserved by convention, assigned in this order at VM
// startup: Nil=0, Bool=1, Num=2 (the built-in primitive classes).
package object

import "fmt"

// ObjectID addresses an Object within a Memory. Ids are assigned in
// allocation order and never reused or moved.
type ObjectID int

// Reserved object ids for the built-in primitive classes, allocated in
// this order at VM startup.
const (
	NilClassID ObjectID = 0
	BoolClassID ObjectID = 1
	NumClassID ObjectID = 2
)

// Kind tags the variant of an Object.
type Kind int

// Object kinds.
const (
	KindClass Kind = iota
	KindPrimitive
	KindInstance
	KindFunction
)

// NativeFunc is a host callback backing a Function whose body is native
// rather than Lumi bytecode. It receives the heap (so it can allocate its
// result and read argument payloads) and the bound argument slots, and
// returns the id of the object to push, or an error.
//
// Errors returned here are wrapped by the VM into a RuntimeError tagged
// with the call-site span, since a native function has no span of its
// own to report.
type NativeFunc func(mem *Memory, args map[string]ObjectID) (ObjectID, error)

// FunctionBody is either a Frame (Lumi bytecode with a captured lexical
// scope and a start/end code range) or a Native host callback.
type FunctionBody interface {
	isFunctionBody()
}

// FrameBody is a bytecode function/method body: the lexical scope
// captured at declaration time (enabling closures) and the
// half-open code range [Start, End) the VM jumps into on call.
type FrameBody struct {
	Scope *Scope
	Start int
	End   int
}

func (FrameBody) isFunctionBody() {}

// NativeBody wraps a host callback.
type NativeBody struct {
	Fn NativeFunc
}

func (NativeBody) isFunctionBody() {}

// Object is a heap-resident value. Which fields are meaningful depends on
// Kind - a single tagged-union struct rather than an interface, so Memory
// can mutate objects (e.g. Instance fields) in place without re-boxing.
type Object struct {
	Kind Kind

	// KindClass
	ClassName string

	// KindPrimitive: nil/bool/number all share this representation.
	// Bool values use 0.0/1.0.
	PrimitiveClassID ObjectID
	PrimitiveValue   float64

	// KindInstance
	InstanceClassID ObjectID
	Fields          map[string]ObjectID

	// KindFunction
	FuncName      string
	Params        []string
	MethodClassID *ObjectID // nil unless this function is a method
	Body          FunctionBody
}

// NewClass builds a KindClass object.
func NewClass(name string) Object {
	return Object{Kind: KindClass, ClassName: name}
}

// NewPrimitive builds a KindPrimitive object boxing value under classID.
func NewPrimitive(classID ObjectID, value float64) Object {
	return Object{Kind: KindPrimitive, PrimitiveClassID: classID, PrimitiveValue: value}
}

// NewInstance builds a KindInstance object with the given fields.
func NewInstance(classID ObjectID, fields map[string]ObjectID) Object {
	return Object{Kind: KindInstance, InstanceClassID: classID, Fields: fields}
}

// NewFunction builds a KindFunction object. methodClassID is nil for a
// plain function, or the owning class id for a method.
func NewFunction(name string, params []string, methodClassID *ObjectID, body FunctionBody) Object {
	return Object{Kind: KindFunction, FuncName: name, Params: params, MethodClassID: methodClassID, Body: body}
}

// ClassIDOf returns the class id of a Primitive or Instance object,
// panicking for any other kind - used by operator dispatch, which always
// starts from a value's class id.
func (o Object) ClassIDOf() ObjectID {
	switch o.Kind {
	case KindPrimitive:
		return o.PrimitiveClassID
	case KindInstance:
		return o.InstanceClassID
	default:
		panic(fmt.Sprintf("object of kind %d has no class id", o.Kind))
	}
}

// Memory is Lumi's append-only heap: objects are allocated in order and
// addressed by the ObjectID returned from Alloc. Ids never move and
// nothing is ever freed - a growing heap is accepted in place of garbage
// collection.
type Memory struct {
	objects []Object
}

// NewMemory creates an empty heap.
func NewMemory() *Memory {
	return &Memory{}
}

// Alloc appends obj to the heap and returns its new, permanent id.
func (m *Memory) Alloc(obj Object) ObjectID {
	id := ObjectID(len(m.objects))
	m.objects = append(m.objects, obj)
	return id
}

// Get returns the object at id. A miss is an internal invariant
// violation (a dangling/garbage id), not a user-facing error, so it
// panics.
func (m *Memory) Get(id ObjectID) Object {
	if int(id) < 0 || int(id) >= len(m.objects) {
		panic(fmt.Sprintf("dangling object id %d", id))
	}
	return m.objects[id]
}

// SetField mutates the named field of the Instance at id - the heap's
// only form of in-place mutation, used by SetProperty.
func (m *Memory) SetField(id ObjectID, name string, value ObjectID) {
	obj := m.Get(id)
	if obj.Kind != KindInstance {
		panic(fmt.Sprintf("SetField on non-instance object %d", id))
	}
	obj.Fields[name] = value
}
