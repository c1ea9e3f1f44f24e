package vm

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/caiquetorres/lumi/pkg/bytecode"
	"github.com/caiquetorres/lumi/pkg/object"
	"github.com/caiquetorres/lumi/pkg/span"
)

// VM is the Lumi bytecode evaluator: a call-frame stack driving execution
// over a single Chunk, a heap, a scope chain, and the two runtime stacks
// that carry operand data between instructions - the object stack (heap
// ids) and the constant stack (inert Constant values popped directly out
// of the constant pool by LoadConstant).
type VM struct {
	mem       *object.Memory
	rootScope *object.Scope
	scope     *object.Scope
	calls     *CallStack

	objStack   []object.ObjectID
	constStack []bytecode.Constant

	out       io.Writer
	logger    *Logger
	startedAt time.Time
}

// New creates a VM ready to run a Chunk, writing `println` output to out
// and registering the built-in primitive classes and native operators.
func New(out io.Writer, logger *Logger) *VM {
	if logger == nil {
		logger = NewLogger(io.Discard)
	}
	vm := &VM{
		mem:       object.NewMemory(),
		out:       out,
		logger:    logger,
		startedAt: time.Now(),
	}
	vm.rootScope = object.NewScope(nil)
	vm.scope = vm.rootScope
	vm.calls = NewCallStack()
	vm.registerBuiltins()
	return vm
}

func (vm *VM) pushConst(c bytecode.Constant) { vm.constStack = append(vm.constStack, c) }

func (vm *VM) popConst() bytecode.Constant {
	n := len(vm.constStack)
	c := vm.constStack[n-1]
	vm.constStack = vm.constStack[:n-1]
	return c
}

func (vm *VM) pushObj(id object.ObjectID) { vm.objStack = append(vm.objStack, id) }

func (vm *VM) popObj() object.ObjectID {
	n := len(vm.objStack)
	id := vm.objStack[n-1]
	vm.objStack = vm.objStack[:n-1]
	return id
}

// Run drives the dispatch loop to completion, returning the first
// RuntimeError raised, or nil on normal termination. Termination is
// reached when the root frame's ip runs off the end of the code buffer -
// a well-formed chunk only reaches this with both runtime stacks empty,
// a condition asserted here since violating it is an emitter bug rather
// than a user-facing error.
func (vm *VM) Run(chunk *bytecode.Chunk) error {
	// Run may be called more than once against the same VM (the REPL
	// compiles and runs one chunk per line while keeping the heap and
	// root scope alive across lines) - each call starts the root frame
	// back at the top of its own, independent chunk.
	if !vm.calls.AtRoot() {
		panic("Run called with calls outstanding from a previous, unterminated run")
	}
	vm.calls.Top().IP = 0

	for {
		frame := vm.calls.Top()
		if vm.calls.AtRoot() && frame.IP >= len(chunk.Code) {
			break
		}
		ip := frame.IP
		op := chunk.ByteAt(ip)
		if err := vm.step(chunk, op, ip); err != nil {
			// Unwind to the root frame and root scope and drop any
			// half-consumed operands, so a later Run starts clean.
			vm.calls = NewCallStack()
			vm.scope = vm.rootScope
			vm.objStack = vm.objStack[:0]
			vm.constStack = vm.constStack[:0]
			return err
		}
	}
	if len(vm.objStack) != 0 {
		panic(fmt.Sprintf("object stack not empty at termination: %d item(s) left", len(vm.objStack)))
	}
	if len(vm.constStack) != 0 {
		panic(fmt.Sprintf("constant stack not empty at termination: %d item(s) left", len(vm.constStack)))
	}
	return nil
}

// step executes exactly one instruction at ip. Every branch is
// responsible for leaving the current top-of-call-stack frame's IP in
// the correct state before returning - either advanced past this
// instruction's static size, or set absolutely (DeclareFunction/Method's
// skip-the-body jump, JumpIfFalse/Jump, or a call/return's frame
// push/pop).
func (vm *VM) step(chunk *bytecode.Chunk, op bytecode.Opcode, ip int) error {
	sp := chunk.SpanAt(ip)

	switch op {
	case bytecode.LoadConstant:
		idx := chunk.ConstantIndexAt(ip)
		vm.pushConst(chunk.ConstantAt(idx))
		vm.calls.Top().IP = ip + bytecode.LoadConstant.Size()

	case bytecode.ConvertConstant:
		c := vm.popConst()
		var obj object.Object
		switch c.Kind {
		case bytecode.KindNil:
			obj = object.NewPrimitive(object.NilClassID, 0)
		case bytecode.KindBool:
			obj = object.NewPrimitive(object.BoolClassID, boolToF64(c.Bool))
		case bytecode.KindNumber:
			obj = object.NewPrimitive(object.NumClassID, c.Num)
		default:
			panic(fmt.Sprintf("ConvertConstant on non-value constant %v", c))
		}
		vm.pushObj(vm.mem.Alloc(obj))
		vm.calls.Top().IP = ip + 1

	case bytecode.BeginScope:
		vm.scope = object.NewScope(vm.scope)
		for name, id := range vm.calls.Top().Slots {
			vm.scope.Declare(name, id)
		}
		vm.logger.ScopePush()
		vm.calls.Top().IP = ip + 1

	case bytecode.EndScope:
		vm.scope = vm.scope.Parent()
		vm.logger.ScopePop()
		vm.calls.Top().IP = ip + 1

	case bytecode.DeclareVariable:
		name := vm.popConst().AsString()
		valueID := vm.popObj()
		vm.scope.Declare(name, valueID)
		vm.calls.Top().IP = ip + 1

	case bytecode.DeclareClass:
		name := vm.popConst().AsString()
		id := vm.mem.Alloc(object.NewClass(name))
		vm.scope.Declare(name, id)
		vm.calls.Top().IP = ip + 1

	case bytecode.DeclareFunction:
		name := vm.popConst().AsString()
		paramCount := int(vm.popConst().AsSize())
		params := make([]string, paramCount)
		for i := 0; i < paramCount; i++ {
			params[i] = vm.popConst().AsString()
		}
		start := int(vm.popConst().AsSize())
		end := int(vm.popConst().AsSize())
		fnID := vm.mem.Alloc(object.NewFunction(name, params, nil, object.FrameBody{
			Scope: vm.scope, Start: start, End: end,
		}))
		vm.scope.Declare(name, fnID)
		vm.calls.Top().IP = end

	case bytecode.DeclareMethod:
		name := vm.popConst().AsString()
		paramCount := int(vm.popConst().AsSize())
		params := make([]string, paramCount)
		for i := 0; i < paramCount; i++ {
			params[i] = vm.popConst().AsString()
		}
		start := int(vm.popConst().AsSize())
		end := int(vm.popConst().AsSize())
		className := vm.popConst().AsString()
		classID, ok := vm.scope.Get(className)
		if !ok {
			return newSymbolNotFound(sp, vm.calls.Traces(), className)
		}
		methodClass := classID
		fnID := vm.mem.Alloc(object.NewFunction(name, params, &methodClass, object.FrameBody{
			Scope: vm.scope, Start: start, End: end,
		}))
		vm.scope.SetMethod(classID, name, fnID)
		vm.calls.Top().IP = end

	case bytecode.GetSymbol:
		name := vm.popConst().AsString()
		id, ok := vm.scope.Get(name)
		if !ok {
			return newSymbolNotFound(sp, vm.calls.Traces(), name)
		}
		vm.pushObj(id)
		vm.calls.Top().IP = ip + 1

	case bytecode.SetVariable:
		name := vm.popConst().AsString()
		valueID := vm.popObj()
		vm.scope.Assign(name, valueID)
		vm.pushObj(valueID)
		vm.calls.Top().IP = ip + 1

	case bytecode.GetProperty:
		name := vm.popConst().AsString()
		objID := vm.popObj()
		obj := vm.mem.Get(objID)
		if obj.Kind == object.KindInstance {
			if fieldID, ok := obj.Fields[name]; ok {
				vm.pushObj(fieldID)
				vm.calls.Top().IP = ip + 1
				break
			}
		}
		classID := propertyClassID(objID, obj)
		if methodID, ok := vm.scope.Method(classID, name); ok {
			vm.pushObj(objID)
			vm.pushObj(methodID)
			vm.calls.Top().IP = ip + 1
			break
		}
		return newCannotReadProperty(sp, vm.calls.Traces(), propertyClassName(vm, obj), name)

	case bytecode.SetProperty:
		lhsID := vm.popObj()
		name := vm.popConst().AsString()
		rhsID := vm.popObj()
		vm.mem.SetField(lhsID, name, rhsID)
		vm.pushObj(rhsID)
		vm.calls.Top().IP = ip + 1

	case bytecode.Instantiate:
		fieldCount := int(vm.popConst().AsSize())
		fields := make(map[string]object.ObjectID, fieldCount)
		for i := 0; i < fieldCount; i++ {
			name := vm.popConst().AsString()
			fields[name] = vm.popObj()
		}
		classID := vm.popObj()
		classObj := vm.mem.Get(classID)
		if classObj.Kind != object.KindClass {
			return newInvalidInstantiation(sp, vm.calls.Traces())
		}
		if classID == object.NilClassID || classID == object.BoolClassID || classID == object.NumClassID {
			return newRuntimeError(sp, vm.calls.Traces(), "cannot instantiate primitive class %s", classObj.ClassName)
		}
		vm.pushObj(vm.mem.Alloc(object.NewInstance(classID, fields)))
		vm.calls.Top().IP = ip + 1

	case bytecode.CallFunction:
		argc := int(vm.popConst().AsSize())
		args := make([]object.ObjectID, argc)
		for i := 0; i < argc; i++ {
			args[i] = vm.popObj()
		}
		calleeID := vm.popObj()
		calleeObj := vm.mem.Get(calleeID)
		if calleeObj.Kind != object.KindFunction {
			return newSymbolNotCallable(sp, vm.calls.Traces(), calleeObj.ClassName)
		}
		var receiver *object.ObjectID
		if calleeObj.MethodClassID != nil {
			r := vm.popObj()
			receiver = &r
		}
		if err := vm.call(calleeObj, args, receiver, sp); err != nil {
			return err
		}

	case bytecode.Add:
		return vm.dispatchBinaryOp("add", sp)
	case bytecode.Subtract:
		return vm.dispatchBinaryOp("sub", sp)
	case bytecode.Multiply:
		return vm.dispatchBinaryOp("mul", sp)
	case bytecode.Divide:
		return vm.dispatchBinaryOp("div", sp)
	case bytecode.Equals:
		return vm.dispatchBinaryOp("eq", sp)
	case bytecode.Greater:
		return vm.dispatchBinaryOp("gt", sp)
	case bytecode.Less:
		return vm.dispatchBinaryOp("lt", sp)

	case bytecode.Not:
		return vm.dispatchUnaryOp("not", sp)
	case bytecode.Negate:
		return vm.dispatchUnaryOp("neg", sp)

	case bytecode.PrintLn:
		id := vm.popObj()
		vm.printValue(id)
		vm.calls.Top().IP = ip + 1

	case bytecode.JumpIfFalse:
		condID := vm.popObj()
		offset := int(vm.popConst().AsSize())
		if isFalsy(vm.mem.Get(condID)) {
			vm.calls.Top().IP = ip + 1 + offset
		} else {
			vm.calls.Top().IP = ip + 1
		}

	case bytecode.Jump:
		offset := int(vm.popConst().AsSize())
		vm.calls.Top().IP = ip + 1 + offset

	case bytecode.Return:
		frame := vm.calls.Pop()
		vm.scope = frame.ReturnScope
		if frame.Trace != nil {
			vm.logger.Return(frame.Trace.FunctionName)
		}
		vm.calls.Top().IP++

	case bytecode.Pop:
		vm.popObj()
		vm.calls.Top().IP = ip + 1

	default:
		panic(fmt.Sprintf("unknown opcode %v at offset %d", op, ip))
	}
	return nil
}

// propertyClassID resolves the class id to search the method table under
// for obj. Primitives and instances use their boxed/declared class id;
// a bare Class object supports static-style method lookup keyed on its
// own id (not specified by the core, but a natural minimal extension
// given GetProperty must handle every Object kind).
func propertyClassID(id object.ObjectID, obj object.Object) object.ObjectID {
	switch obj.Kind {
	case object.KindPrimitive, object.KindInstance:
		return obj.ClassIDOf()
	default:
		return id
	}
}

func propertyClassName(vm *VM, obj object.Object) string {
	switch obj.Kind {
	case object.KindPrimitive, object.KindInstance:
		return vm.mem.Get(obj.ClassIDOf()).ClassName
	case object.KindClass:
		return obj.ClassName
	default:
		return "function"
	}
}

func isFalsy(obj object.Object) bool {
	return obj.Kind == object.KindPrimitive && obj.PrimitiveValue == 0.0
}

// dispatchBinaryOp implements Add/Subtract/Multiply/Divide/Equals/
// Greater/Less: pop both operands, look up methodName on the left
// operand's class, and invoke it with the right operand as the sole
// positional argument.
func (vm *VM) dispatchBinaryOp(methodName string, sp span.Span) error {
	rightID := vm.popObj()
	leftID := vm.popObj()
	leftObj := vm.mem.Get(leftID)
	classID := propertyClassID(leftID, leftObj)
	methodID, ok := vm.scope.Method(classID, methodName)
	if !ok {
		return newInvalidBinaryOperands(sp, vm.calls.Traces())
	}
	fnObj := vm.mem.Get(methodID)
	return vm.call(fnObj, []object.ObjectID{rightID}, &leftID, sp)
}

// dispatchUnaryOp implements Not/Negate: pop the sole operand and invoke
// methodName on its class with no positional argument.
func (vm *VM) dispatchUnaryOp(methodName string, sp span.Span) error {
	operandID := vm.popObj()
	operandObj := vm.mem.Get(operandID)
	classID := propertyClassID(operandID, operandObj)
	methodID, ok := vm.scope.Method(classID, methodName)
	if !ok {
		return newInvalidBinaryOperands(sp, vm.calls.Traces())
	}
	fnObj := vm.mem.Get(methodID)
	return vm.call(fnObj, nil, &operandID, sp)
}

// call implements the shared mechanics of invoking a Function object,
// whether reached through CallFunction or through an operator's implicit
// method dispatch - both bind `this`/`This` (for methods) and the
// positional parameters the same way, and both opcodes are a single byte
// wide, so Return's "advance the caller's ip by one" logic works
// unmodified for either call site.
func (vm *VM) call(fnObj object.Object, args []object.ObjectID, receiver *object.ObjectID, callSite span.Span) error {
	if len(args) < len(fnObj.Params) {
		panic(fmt.Sprintf("missing arguments calling %s: want %d, got %d", fnObj.FuncName, len(fnObj.Params), len(args)))
	}
	slots := make(map[string]object.ObjectID, len(fnObj.Params)+2)
	for i, p := range fnObj.Params {
		slots[p] = args[i]
	}
	isMethod := fnObj.MethodClassID != nil
	className := ""
	if isMethod {
		if receiver == nil {
			panic(fmt.Sprintf("method %s invoked without a receiver", fnObj.FuncName))
		}
		slots["this"] = *receiver
		slots["This"] = *fnObj.MethodClassID
		className = vm.mem.Get(*fnObj.MethodClassID).ClassName
	}

	switch body := fnObj.Body.(type) {
	case object.FrameBody:
		vm.logger.Call(fnObj.FuncName, className, isMethod)
		trace := &Trace{CallSite: callSite, FunctionName: fnObj.FuncName, ClassName: className, IsMethod: isMethod}
		vm.calls.Push(&CallFrame{IP: body.Start, ReturnScope: vm.scope, Slots: slots, Trace: trace})
		vm.scope = body.Scope
		return nil
	case object.NativeBody:
		vm.logger.Call(fnObj.FuncName, className, isMethod)
		result, err := body.Fn(vm.mem, slots)
		if err != nil {
			return newRuntimeError(callSite, vm.calls.Traces(), "%s", err.Error())
		}
		vm.pushObj(result)
		vm.calls.Top().IP++
		return nil
	default:
		panic(fmt.Sprintf("function %s has no body", fnObj.FuncName))
	}
}

// printValue implements `println`'s per-kind textual rendering. Classes
// and instances print a bracketed descriptor naming themselves; Bool/Nil
// print their literal spelling; Num prints its minimal decimal form; a
// raw Function prints a bare placeholder. This dispatches on the
// object's own Kind/class rather than blindly dumping the boxed float
// for every primitive, so `println false` shows `false`, not the
// underlying 0.0.
func (vm *VM) printValue(id object.ObjectID) {
	obj := vm.mem.Get(id)
	switch obj.Kind {
	case object.KindClass:
		fmt.Fprintf(vm.out, "<class %s>\n", obj.ClassName)
	case object.KindPrimitive:
		switch obj.PrimitiveClassID {
		case object.BoolClassID:
			if obj.PrimitiveValue != 0 {
				fmt.Fprintln(vm.out, "true")
			} else {
				fmt.Fprintln(vm.out, "false")
			}
		case object.NilClassID:
			fmt.Fprintln(vm.out, "nil")
		default:
			fmt.Fprintln(vm.out, formatNumber(obj.PrimitiveValue))
		}
	case object.KindInstance:
		fmt.Fprintf(vm.out, "<instance %s>\n", vm.mem.Get(obj.InstanceClassID).ClassName)
	case object.KindFunction:
		fmt.Fprintln(vm.out, "<function>")
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
