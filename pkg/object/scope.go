package object

// Scope is one node in a lexical environment chain. Each node maps names
// to object ids and (class id, method name) pairs to function object
// ids, and holds a pointer to its enclosing scope (nil for the root).
//
// Scopes are referenced from multiple places at once: a bytecode
// Function captures the scope active at its declaration (FrameBody.Scope)
// so inner functions keep resolving their lexical environment even after
// the outer call that declared them returns - ordinary closure semantics.
// Two ways to implement that sharing: reference-counted nodes with
// interior mutability, or an arena of nodes addressed by integer id with
// an explicit parent-id field, to sidestep reference cycles. Go's tracing
// garbage collector makes the cycle concern moot, so Scope uses plain
// pointers without needing a hand-rolled arena.
type Scope struct {
	parent  *Scope
	symbols map[string]ObjectID
	methods map[methodKey]ObjectID
}

type methodKey struct {
	classID ObjectID
	name    string
}

// NewScope creates a scope node chained to parent (nil for the root
// scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]ObjectID),
		methods: make(map[methodKey]ObjectID),
	}
}

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Get walks from this scope outward to the root, returning the first
// binding found for name.
func (s *Scope) Get(name string) (ObjectID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.symbols[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Declare binds name to id in this scope only, shadowing any outer
// binding of the same name. Used for `let`/`const` declarations and for
// seeding a call frame's parameter slots.
func (s *Scope) Declare(name string, id ObjectID) {
	s.symbols[name] = id
}

// Assign walks from this scope outward looking for an existing binding of
// name and updates it in place; if none exists anywhere in the chain, it
// installs a new binding in this (the innermost/current) scope instead.
//
// This makes an un-declared assignment behave exactly like a declaration
// in the current scope - intentional, not a bug: `x = 1;` without a prior
// `let x` declares `x` rather than raising SymbolNotFound.
func (s *Scope) Assign(name string, id ObjectID) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.symbols[name]; ok {
			sc.symbols[name] = id
			return
		}
	}
	s.symbols[name] = id
}

// SetMethod installs fnID as classID's method named name in this scope.
// Like symbol declarations, method declarations install at the current
// scope and are visible to inner scopes via the usual chain walk.
func (s *Scope) SetMethod(classID ObjectID, name string, fnID ObjectID) {
	s.methods[methodKey{classID, name}] = fnID
}

// Method walks from this scope outward looking for a (classID, name)
// method binding, mirroring Get's symbol resolution. This is how both
// user-defined `impl` methods and the VM's built-in operator
// implementations (add/sub/eq/not/...) are found.
func (s *Scope) Method(classID ObjectID, name string) (ObjectID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.methods[methodKey{classID, name}]; ok {
			return id, true
		}
	}
	return 0, false
}
