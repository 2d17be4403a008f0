// Package engine is the host surface of tern: context groups sharing one
// heap, contexts with their own global object, top-level scripts, modules,
// and collection.
package engine

import (
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"tern/internal/heap"
	"tern/internal/machine"
	"tern/internal/module"
	"tern/internal/object"
)

// DefaultMaxRecursion is the call depth limit when none is configured.
const DefaultMaxRecursion = 1000

// ContextGroup owns the heap, the protected values and the module loader
// table shared by its contexts.
type ContextGroup struct {
	mu       sync.Mutex
	heap     *heap.Heap
	opts     options
	logger   *log.Logger
	contexts map[heap.Owner]*Context
	nextID   heap.Owner

	loader  ModuleLoader
	builtin *module.Resolver

	collecting atomic.Bool
}

func NewContextGroup(opts ...Option) *ContextGroup {
	o := options{maxRecursion: DefaultMaxRecursion, out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ContextGroup{
		heap:     heap.New(o.maxMemory),
		opts:     o,
		logger:   logger,
		contexts: map[heap.Owner]*Context{},
		builtin:  module.NewResolver(o.modulePaths),
	}
}

// NewContext creates a context with a fresh global object.
func (g *ContextGroup) NewContext() *Context {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.mu.Unlock()

	global := object.NewObject()
	global.Class = "global"
	m := machine.New(
		machine.WithOutput(g.opts.out),
		machine.WithAllocator(allocator{heap: g.heap, owner: id}),
		machine.WithMaxDepth(g.opts.maxRecursion),
		machine.WithLogger(g.logger),
	)
	m.InstallGlobals(global)
	scope := object.NewGlobalEnvironment(global)
	c := &Context{
		id:        id,
		group:     g,
		global:    global,
		scope:     scope,
		machine:   m,
		state:     machine.NewExecState(global, scope, machine.NewRegisterFile(g.opts.registers)),
		modules:   map[string]*module.Record{},
		synthetic: map[string]bool{},
	}

	g.mu.Lock()
	g.contexts[id] = c
	g.mu.Unlock()
	g.logger.Debug("context created", "id", id)
	return c
}

// SetModuleLoader installs the loader table. When disableBuiltin is false
// the filesystem loader still handles path specifiers and files under the
// module paths. Install the table before any module operation.
func (g *ContextGroup) SetModuleLoader(l ModuleLoader, disableBuiltin bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loader = l
	if disableBuiltin {
		g.builtin = nil
	} else if g.builtin == nil {
		g.builtin = module.NewResolver(g.opts.modulePaths)
	}
}

func (g *ContextGroup) moduleLoader() (ModuleLoader, *module.Resolver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loader, g.builtin
}

func (g *ContextGroup) Logger() *log.Logger { return g.logger }

// Protect keeps v alive across collections until a matching Unprotect.
func (g *ContextGroup) Protect(v object.Value)   { g.heap.Protect(v) }
func (g *ContextGroup) Unprotect(v object.Value) { g.heap.Unprotect(v) }

func (g *ContextGroup) release(c *Context) {
	g.mu.Lock()
	delete(g.contexts, c.id)
	g.mu.Unlock()
}

func (g *ContextGroup) snapshot() []*Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Context, 0, len(g.contexts))
	for _, c := range g.contexts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// GarbageCollect releases every allocation no context can reach. A
// context busy on another goroutine keeps all of its allocations. A call
// made while a collection is already running does nothing and reports
// false.
func (g *ContextGroup) GarbageCollect() (heap.Stats, bool) {
	if !g.collecting.CompareAndSwap(false, true) {
		return heap.Stats{}, false
	}
	defer g.collecting.Store(false)

	var idle []*Context
	pinned := map[heap.Owner]bool{}
	for _, c := range g.snapshot() {
		if !c.mu.TryLock() {
			pinned[c.id] = true
			continue
		}
		idle = append(idle, c)
	}
	defer func() {
		for _, c := range idle {
			c.mu.Unlock()
		}
	}()

	stats, ok := g.heap.Collect(func(m *heap.Marker) {
		for _, c := range idle {
			c.trace(m)
		}
	}, pinned)
	if ok {
		g.logger.Debug("collected", "size", stats.Size, "objects", stats.Objects, "busy", len(pinned))
	}
	return stats, ok
}

// MemoryUsageStatistics returns a fresh object describing the group's
// heap. The object is not registered with the heap.
func (g *ContextGroup) MemoryUsageStatistics() *object.Object {
	stats := g.heap.Stats()
	contexts := g.snapshot()
	modules := 0
	for _, c := range contexts {
		modules += c.moduleCount()
	}
	out := object.NewObject()
	out.Set("heapSize", &object.Number{Value: float64(stats.Size)})
	out.Set("heapCapacity", &object.Number{Value: float64(stats.Capacity)})
	out.Set("objectCount", &object.Number{Value: float64(stats.Objects)})
	out.Set("protectedCount", &object.Number{Value: float64(stats.Protected)})
	out.Set("contextCount", &object.Number{Value: float64(len(contexts))})
	out.Set("moduleCount", &object.Number{Value: float64(modules)})
	return out
}

type allocator struct {
	heap  *heap.Heap
	owner heap.Owner
}

func (a allocator) Allocate(v object.Value) error { return a.heap.Allocate(a.owner, v) }
