// Package vm implements the Lumi bytecode evaluator: the call frame
// stack, the dual object/constant stacks, the dispatch loop, and runtime
// error reporting.
package vm

import (
	"github.com/caiquetorres/lumi/pkg/object"
	"github.com/caiquetorres/lumi/pkg/span"
)

// Trace is one entry in a captured stack trace: the function/method
// being executed and the call-site span that invoked it. ClassName is
// only meaningful when IsMethod is true.
type Trace struct {
	CallSite     span.Span
	FunctionName string
	ClassName    string
	IsMethod     bool
}

// CallFrame is the activation record for one in-flight function call. It
// carries the instruction pointer to resume after a nested call returns,
// the scope to restore on return (nil at the root frame), the parameter
// (and this/This) bindings, and the trace entry describing how this
// frame was reached.
type CallFrame struct {
	IP          int
	ReturnScope *object.Scope
	Slots       map[string]object.ObjectID
	Trace       *Trace // nil for the root frame, which was never "called"
}

// CallStack is a LIFO stack of call frames. The bottommost frame is the
// program root; the topmost frame's IP drives the VM's evaluation loop.
type CallStack struct {
	frames []*CallFrame
}

// NewCallStack creates a call stack seeded with a root frame with no
// return scope and no trace entry - the program itself was never called.
func NewCallStack() *CallStack {
	return &CallStack{frames: []*CallFrame{{Slots: map[string]object.ObjectID{}}}}
}

// Push adds a new frame on top of the stack, making it current.
func (cs *CallStack) Push(f *CallFrame) {
	cs.frames = append(cs.frames, f)
}

// Pop removes and returns the top frame. Popping the root frame is an
// internal invariant violation - it panics, since Return is only ever
// reached from within a called function.
func (cs *CallStack) Pop() *CallFrame {
	if len(cs.frames) <= 1 {
		panic("call stack underflow: attempted to pop the root frame")
	}
	top := cs.frames[len(cs.frames)-1]
	cs.frames = cs.frames[:len(cs.frames)-1]
	return top
}

// Top returns the currently active frame.
func (cs *CallStack) Top() *CallFrame {
	return cs.frames[len(cs.frames)-1]
}

// Len returns the number of frames currently on the stack, including the
// root frame.
func (cs *CallStack) Len() int { return len(cs.frames) }

// AtRoot reports whether only the root frame remains - the VM's
// termination invariant: at normal termination the call stack contains
// only the root frame.
func (cs *CallStack) AtRoot() bool { return len(cs.frames) == 1 }

// Traces returns the captured stack trace, innermost call first, for
// embedding in a RuntimeError.
func (cs *CallStack) Traces() []Trace {
	var out []Trace
	for i := len(cs.frames) - 1; i >= 0; i-- {
		if t := cs.frames[i].Trace; t != nil {
			out = append(out, *t)
		}
	}
	return out
}
