package vm

import (
	"fmt"
	"time"

	"github.com/caiquetorres/lumi/pkg/object"
)

// registerBuiltins allocates the three reserved primitive classes (Nil,
// Bool, Num, in that order, giving them object ids 0/1/2) and wires up
// the native operator implementations that back every
// dispatch-through-method-table opcode (Add, Subtract, Multiply, Divide,
// Equals, Greater, Less, Not, Negate) plus the native top-level
// `clock()` function. These are registered in the root scope so every
// other scope's method/symbol lookup finds them via the normal chain
// walk.
func (vm *VM) registerBuiltins() {
	nilID := vm.mem.Alloc(object.NewClass("Nil"))
	boolID := vm.mem.Alloc(object.NewClass("Bool"))
	numID := vm.mem.Alloc(object.NewClass("Num"))
	if nilID != object.NilClassID || boolID != object.BoolClassID || numID != object.NumClassID {
		panic("builtin class ids diverged from the reserved Nil=0/Bool=1/Num=2 convention")
	}

	vm.registerNumMethod("add", func(a, b float64) float64 { return a + b })
	vm.registerNumMethod("sub", func(a, b float64) float64 { return a - b })
	vm.registerNumMethod("mul", func(a, b float64) float64 { return a * b })
	vm.registerNumMethod("div", func(a, b float64) float64 { return a / b })
	vm.registerNumCompare("gt", func(a, b float64) bool { return a > b })
	vm.registerNumCompare("lt", func(a, b float64) bool { return a < b })
	vm.registerNumCompare("eq", func(a, b float64) bool { return a == b })
	vm.registerUnary(object.NumClassID, "neg", func(a float64) float64 { return -a })

	vm.registerUnaryPredicate(object.BoolClassID, "not", func(a float64) bool { return a == 0 })
	vm.registerBoolEq()

	vm.registerNativeFunction("clock", func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		elapsed := float64(time.Since(vm.startedAt).Milliseconds())
		return mem.Alloc(object.NewPrimitive(object.NumClassID, elapsed)), nil
	})
}

func thisNumber(mem *object.Memory, args map[string]object.ObjectID) (float64, error) {
	this, ok := args["this"]
	if !ok {
		return 0, fmt.Errorf("native method missing receiver")
	}
	obj := mem.Get(this)
	if obj.Kind != object.KindPrimitive {
		return 0, fmt.Errorf("native numeric method called on non-primitive receiver")
	}
	return obj.PrimitiveValue, nil
}

func otherNumber(mem *object.Memory, args map[string]object.ObjectID) (float64, bool, error) {
	other, ok := args["other"]
	if !ok {
		return 0, false, nil
	}
	obj := mem.Get(other)
	if obj.Kind != object.KindPrimitive {
		return 0, true, fmt.Errorf("native numeric method called with non-primitive operand")
	}
	return obj.PrimitiveValue, true, nil
}

func (vm *VM) registerNumMethod(name string, f func(a, b float64) float64) {
	vm.registerNativeMethod(object.NumClassID, name, []string{"other"}, func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		a, err := thisNumber(mem, args)
		if err != nil {
			return 0, err
		}
		b, _, err := otherNumber(mem, args)
		if err != nil {
			return 0, err
		}
		return mem.Alloc(object.NewPrimitive(object.NumClassID, f(a, b))), nil
	})
}

func (vm *VM) registerNumCompare(name string, f func(a, b float64) bool) {
	vm.registerNativeMethod(object.NumClassID, name, []string{"other"}, func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		a, err := thisNumber(mem, args)
		if err != nil {
			return 0, err
		}
		b, present, err := otherNumber(mem, args)
		if err != nil {
			return 0, err
		}
		result := present && f(a, b)
		return mem.Alloc(object.NewPrimitive(object.BoolClassID, boolToF64(result))), nil
	})
}

// registerUnary installs a unary native method - one that dispatches
// through CallFunction with only a receiver and no other operand
// (Negate) - so it must declare zero params; the receiver is bound
// through "this", not through the declared parameter list.
func (vm *VM) registerUnary(classID object.ObjectID, name string, f func(a float64) float64) {
	vm.registerNativeMethod(classID, name, nil, func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		a, err := thisNumber(mem, args)
		if err != nil {
			return 0, err
		}
		return mem.Alloc(object.NewPrimitive(classID, f(a))), nil
	})
}

// registerUnaryPredicate is registerUnary's Bool-returning counterpart,
// backing Not.
func (vm *VM) registerUnaryPredicate(classID object.ObjectID, name string, f func(a float64) bool) {
	vm.registerNativeMethod(classID, name, nil, func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		a, err := thisNumber(mem, args)
		if err != nil {
			return 0, err
		}
		return mem.Alloc(object.NewPrimitive(object.BoolClassID, boolToF64(f(a)))), nil
	})
}

// registerBoolEq backs `eq` for the Bool class by comparing both
// operands' boxed payloads directly.
func (vm *VM) registerBoolEq() {
	vm.registerNativeMethod(object.BoolClassID, "eq", []string{"other"}, func(mem *object.Memory, args map[string]object.ObjectID) (object.ObjectID, error) {
		a, err := thisNumber(mem, args)
		if err != nil {
			return 0, err
		}
		b, present, err := otherNumber(mem, args)
		if err != nil {
			return 0, err
		}
		result := present && a == b
		return mem.Alloc(object.NewPrimitive(object.BoolClassID, boolToF64(result))), nil
	})
}

func boolToF64(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// registerNativeMethod installs a native function as classID's method
// named name in the root scope. params is the method's declared
// parameter list excluding the receiver - empty for unary operators
// (Negate, Not), ["other"] for binary ones (Add, Equals, ...) - since
// "this" is always bound separately by the call protocol, never as a
// declared parameter.
func (vm *VM) registerNativeMethod(classID object.ObjectID, name string, params []string, fn object.NativeFunc) {
	methodClass := classID
	fnObj := object.NewFunction(name, params, &methodClass, object.NativeBody{Fn: fn})
	id := vm.mem.Alloc(fnObj)
	vm.rootScope.SetMethod(classID, name, id)
}

// registerNativeFunction installs a native top-level function in the
// root scope.
func (vm *VM) registerNativeFunction(name string, fn object.NativeFunc) {
	fnObj := object.NewFunction(name, nil, nil, object.NativeBody{Fn: fn})
	id := vm.mem.Alloc(fnObj)
	vm.rootScope.Declare(name, id)
}
