package engine

import (
	"sync"
	"sync/atomic"

	"tern/internal/debugger"
	"tern/internal/diag"
	"tern/internal/heap"
	"tern/internal/machine"
	"tern/internal/module"
	"tern/internal/object"
	"tern/internal/parser"
)

// Context is one global object with its scope, machine and module
// registry. Host calls on a context are serialized by its execution lock;
// distinct contexts may run on distinct goroutines.
type Context struct {
	mu       sync.Mutex
	id       heap.Owner
	group    *ContextGroup
	global   *object.Object
	scope    *object.Environment
	machine  *machine.Machine
	state    *machine.ExecState
	released bool

	// paused is set while the pause handler runs; releasing defers a
	// Release issued during a pause until the running call returns.
	paused    atomic.Bool
	releasing atomic.Bool

	modules   map[string]*module.Record
	synthetic map[string]bool
	moduleN   atomic.Int64
	anon      int
}

// NewContext creates a context in a group of its own.
func NewContext(opts ...Option) *Context {
	return NewContextGroup(opts...).NewContext()
}

func (c *Context) Group() *ContextGroup      { return c.group }
func (c *Context) Global() *object.Object    { return c.global }
func (c *Context) Machine() *machine.Machine { return c.machine }

// lock takes the execution lock, failing on nil, released or paused
// contexts. A paused context holds its lock for the whole pause, so
// waiting for it from the pause handler could never succeed.
func (c *Context) lock() error {
	if c == nil {
		return &Error{Kind: ErrInit, Message: "nil context"}
	}
	if c.paused.Load() {
		return &Error{Kind: ErrEval, Message: "context is paused; evaluate through the call frame"}
	}
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return released()
	}
	return nil
}

// unlock releases the execution lock, completing a Release requested
// while the context was paused.
func (c *Context) unlock() {
	pending := c.releasing.Swap(false) && !c.released
	if pending {
		c.detach()
	}
	c.mu.Unlock()
	if pending {
		c.group.release(c)
		c.group.logger.Debug("context released", "id", c.id)
	}
}

// detach drops the context's roots. The caller holds c.mu.
func (c *Context) detach() {
	c.released = true
	c.modules = map[string]*module.Record{}
	c.moduleN.Store(0)
}

// Release detaches the context from its group. Its allocations become
// garbage at the next collection. Called while the context is paused, it
// takes effect when the paused call returns.
func (c *Context) Release() {
	if c == nil {
		return
	}
	if c.paused.Load() {
		c.releasing.Store(true)
		return
	}
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.detach()
	c.mu.Unlock()
	c.group.release(c)
	c.group.logger.Debug("context released", "id", c.id)
}

// EvaluateScript runs source as a top-level program against the global
// object. A nil thisObject means the global object. Lines below 1 are
// treated as 1; the starting line only affects diagnostics.
func (c *Context) EvaluateScript(source string, thisObject object.Value, sourceURL string, startingLine int) (object.Value, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()

	unit, perr := parser.Parse(parser.ProgramKind, sourceURL, clampLine(startingLine), source)
	if perr != nil {
		return nil, syntaxException(perr)
	}
	if thisObject == nil {
		thisObject = c.global
	}
	return c.machine.Execute(unit, c.state, thisObject, c.scope)
}

// CheckScriptSyntax parses source without running it.
func (c *Context) CheckScriptSyntax(source, sourceURL string, startingLine int) (bool, error) {
	if err := c.lock(); err != nil {
		return false, err
	}
	defer c.unlock()

	if _, perr := parser.Parse(parser.ProgramKind, sourceURL, clampLine(startingLine), source); perr != nil {
		return false, syntaxException(perr)
	}
	return true, nil
}

// SyntaxDiagnostics returns every diagnostic the parser reports for
// source, warnings included.
func SyntaxDiagnostics(source string, startingLine int) []diag.Diagnostic {
	return parser.Diagnostics(parser.ProgramKind, clampLine(startingLine), source)
}

// AddToGlobalObject defines name on the global object.
func (c *Context) AddToGlobalObject(name string, v object.Value) error {
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()
	c.global.Set(name, v)
	return nil
}

// SetPauseHandler calls h with the paused frame whenever execution stops
// at a debugger statement, a breakpoint or a step. A nil h disables
// pausing.
//
// h runs on the goroutine of the paused call. While it runs, host calls
// that need the execution lock (EvaluateScript, CheckScriptSyntax,
// AddToGlobalObject and the module operations) fail with an ErrEval
// *Error; code runs in the paused frame through CallFrame.Evaluate.
// Release is deferred until the paused call returns, and GarbageCollect
// treats the context as busy.
func (c *Context) SetPauseHandler(h func(*debugger.CallFrame)) {
	if h == nil {
		c.machine.SetPauseHandler(nil)
		return
	}
	c.machine.SetPauseHandler(func(f *machine.Frame) {
		c.paused.Store(true)
		defer c.paused.Store(false)
		h(debugger.Wrap(f))
	})
}

func (c *Context) SetBreakpoint(sourceURL string, line int) {
	c.machine.SetBreakpoint(sourceURL, line)
}

func (c *Context) ClearBreakpoints() { c.machine.ClearBreakpoints() }

func (c *Context) Protect(v object.Value)   { c.group.Protect(v) }
func (c *Context) Unprotect(v object.Value) { c.group.Unprotect(v) }

func (c *Context) GarbageCollect() (heap.Stats, bool) { return c.group.GarbageCollect() }

func (c *Context) MemoryUsageStatistics() *object.Object {
	return c.group.MemoryUsageStatistics()
}

func (c *Context) moduleCount() int { return int(c.moduleN.Load()) }

// trace marks everything the context can reach. The caller holds c.mu.
func (c *Context) trace(m *heap.Marker) {
	if c.released {
		return
	}
	m.Value(c.global)
	m.Scope(c.scope)
	m.Values(c.state.Registers.Live())
	for _, rec := range c.modules {
		m.Scope(rec.Scope)
		if rec.Namespace != nil {
			m.Value(rec.Namespace)
		}
		if rec.Meta != nil {
			m.Value(rec.Meta)
		}
		m.Value(rec.Result)
	}
}

func clampLine(line int) int {
	if line < 1 {
		return 1
	}
	return line
}

// syntaxException converts a parse failure into a thrown SyntaxError.
func syntaxException(perr *parser.SyntaxError) *object.Exception {
	e := object.NewError(object.KindSyntaxError, "%s", perr.Message)
	e.Line = perr.Line
	e.Column = perr.Column
	e.SourceURL = perr.SourceURL
	return object.Throw(e)
}
