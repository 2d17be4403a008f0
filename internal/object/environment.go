package object

import "sort"

type binding struct {
	value   Value
	mutable bool
	// link makes this binding a read-only view of another scope's binding
	// (module imports).
	link *binding
}

func (b *binding) get() Value {
	if b.link != nil {
		return b.link.get()
	}
	return b.value
}

// Environment is one link of a scope chain. A var scope (global, function,
// module) receives var declarations; block scopes only hold let/const.
// The global environment is backed by the global object, so global vars
// and global object properties are the same thing.
type Environment struct {
	store    map[string]*binding
	outer    *Environment
	object   *Object
	varScope bool
}

func NewEnvironment() *Environment {
	return &Environment{store: map[string]*binding{}, varScope: true}
}

func NewGlobalEnvironment(global *Object) *Environment {
	env := NewEnvironment()
	env.object = global
	return env
}

// NewEnclosedEnvironment returns a block scope inside outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: map[string]*binding{}, outer: outer}
}

// NewFunctionEnvironment returns a var scope inside outer.
func NewFunctionEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

func (e *Environment) Outer() *Environment { return e.outer }
func (e *Environment) IsVarScope() bool    { return e.varScope }

// Object returns the backing object of an object environment, or nil.
func (e *Environment) Object() *Object { return e.object }

func (e *Environment) Get(name string) (Value, bool) {
	for cur := e; cur != nil; cur = cur.outer {
		if v, ok := cur.GetHere(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (e *Environment) GetHere(name string) (Value, bool) {
	if b, ok := e.store[name]; ok {
		return b.get(), true
	}
	if e.object != nil {
		return e.object.Get(name)
	}
	return nil, false
}

// Resolve returns the innermost environment that binds name.
func (e *Environment) Resolve(name string) *Environment {
	for cur := e; cur != nil; cur = cur.outer {
		if _, ok := cur.store[name]; ok {
			return cur
		}
		if cur.object != nil && cur.object.Has(name) {
			return cur
		}
	}
	return nil
}

// IsConst reports whether name is bound immutably in this environment.
func (e *Environment) IsConst(name string) bool {
	b, ok := e.store[name]
	return ok && (!b.mutable || b.link != nil)
}

// Assign updates the innermost existing binding of name. It reports false
// when no scope binds name. Constness is the caller's concern.
func (e *Environment) Assign(name string, val Value) (Value, bool) {
	target := e.Resolve(name)
	if target == nil {
		return nil, false
	}
	if b, ok := target.store[name]; ok {
		b.value = val
		return val, true
	}
	target.object.Set(name, val)
	return val, true
}

// Set binds name mutably in this environment. An existing binding is
// updated in place so module imports linked to it see the new value.
func (e *Environment) Set(name string, val Value) Value {
	if e.object != nil {
		e.object.Set(name, val)
		return val
	}
	e.bind(name, val, true)
	return val
}

// Declare creates a let (mutable) or const binding in this environment.
func (e *Environment) Declare(name string, val Value, mutable bool) {
	e.bind(name, val, mutable)
}

func (e *Environment) bind(name string, val Value, mutable bool) {
	if b, ok := e.store[name]; ok && b.link == nil {
		b.value = val
		b.mutable = mutable
		return
	}
	e.store[name] = &binding{value: val, mutable: mutable}
}

// DeclareVar makes sure the nearest var scope binds name, initializing it
// to undefined if it is new.
func (e *Environment) DeclareVar(name string) {
	scope := e.VarScope()
	if _, ok := scope.GetHere(name); ok {
		return
	}
	scope.Set(name, UNDEFINED)
}

// Link binds local in e as a read-only alias of name in target.
func (e *Environment) Link(local string, target *Environment, name string) bool {
	b, ok := target.store[name]
	if !ok {
		return false
	}
	e.store[local] = &binding{link: b}
	return true
}

// VarScope returns the nearest enclosing var scope.
func (e *Environment) VarScope() *Environment {
	cur := e
	for !cur.varScope && cur.outer != nil {
		cur = cur.outer
	}
	return cur
}

// Names lists the names bound directly in this environment, sorted.
func (e *Environment) Names() []string {
	out := make([]string, 0, len(e.store))
	for k := range e.store {
		out = append(out, k)
	}
	if e.object != nil {
		out = append(out, e.object.Keys()...)
	}
	sort.Strings(out)
	return out
}

func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.store))
	for k, b := range e.store {
		out[k] = b.get()
	}
	return out
}

// Each visits every value held directly by this environment.
func (e *Environment) Each(fn func(name string, v Value)) {
	for k, b := range e.store {
		fn(k, b.get())
	}
}
