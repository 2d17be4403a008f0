package engine

import (
	"errors"
	"fmt"

	"tern/internal/machine"
	"tern/internal/module"
	"tern/internal/object"
	"tern/internal/parser"
)

// SetModuleLoader installs l on the context's group.
func (c *Context) SetModuleLoader(l ModuleLoader, disableBuiltin bool) {
	c.group.SetModuleLoader(l, disableBuiltin)
}

// SetSyntheticModuleKeys marks keys whose namespace comes from the
// loader's Evaluate instead of fetched source. A key that already has a
// source module record is rejected and no key is marked.
func (c *Context) SetSyntheticModuleKeys(keys ...string) error {
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()
	for _, k := range keys {
		if rec, ok := c.modules[k]; ok && !rec.Synthetic {
			return &Error{Kind: ErrModule, Message: fmt.Sprintf("module %q already has a record (%s)", k, rec.State)}
		}
	}
	for _, k := range keys {
		c.synthetic[k] = true
	}
	return nil
}

// LoadModule resolves specifier at top level, then fetches and parses the
// module and everything it imports. The key is returned even when loading
// fails so the failure can be observed through LinkAndEvaluateModule.
func (c *Context) LoadModule(specifier string) (string, error) {
	if err := c.lock(); err != nil {
		return "", err
	}
	defer c.unlock()
	return c.loadModule(specifier)
}

// LoadModuleFromSource registers source under sourceURL (a generated key
// when empty) and loads its imports.
func (c *Context) LoadModuleFromSource(source, sourceURL string, startingLine int) (string, error) {
	if err := c.lock(); err != nil {
		return "", err
	}
	defer c.unlock()
	return c.loadSource(source, sourceURL, startingLine)
}

// LinkAndEvaluateModule links the loaded module key and its dependencies,
// runs every module not yet evaluated and returns key's namespace. Link
// is all-or-nothing: on failure no module of the graph becomes Linked.
func (c *Context) LinkAndEvaluateModule(key string) (object.Value, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()
	return c.linkAndEvaluate(key)
}

// LoadAndEvaluateModule loads filename and runs it. With the built-in
// loader enabled an existing file is keyed by its absolute path;
// otherwise filename is resolved like any top-level specifier.
func (c *Context) LoadAndEvaluateModule(filename string) (object.Value, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()

	spec := filename
	if _, builtin := c.group.moduleLoader(); builtin != nil {
		if p, ok := builtin.File(filename); ok {
			spec = p
		}
	}
	key, err := c.loadModule(spec)
	if err != nil {
		return nil, err
	}
	return c.linkAndEvaluate(key)
}

func (c *Context) LoadAndEvaluateModuleFromSource(source, sourceURL string, startingLine int) (object.Value, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()
	key, err := c.loadSource(source, sourceURL, startingLine)
	if err != nil {
		return nil, err
	}
	return c.linkAndEvaluate(key)
}

// ModuleState reports the lifecycle state of key.
func (c *Context) ModuleState(key string) (module.State, bool) {
	if err := c.lock(); err != nil {
		return 0, false
	}
	defer c.unlock()
	rec, ok := c.modules[key]
	if !ok {
		return 0, false
	}
	return rec.State, true
}

func (c *Context) loadModule(specifier string) (string, error) {
	key, err := c.resolve("", specifier)
	if err != nil {
		return "", asException(object.KindError, err)
	}
	return key, c.load(c.record(key))
}

func (c *Context) loadSource(source, sourceURL string, startingLine int) (string, error) {
	key := sourceURL
	if key == "" {
		c.anon++
		key = fmt.Sprintf("<module %d>", c.anon)
	}
	if _, exists := c.modules[key]; exists {
		return key, &Error{Kind: ErrModule, Message: fmt.Sprintf("module %q is already registered", key)}
	}
	rec := c.record(key)
	rec.Synthetic = false
	rec.Source = source
	rec.StartLine = clampLine(startingLine)
	if err := c.advance(rec, module.Fetched); err != nil {
		return key, err
	}
	return key, c.load(rec)
}

// record returns the registry entry for key, creating it on first use.
func (c *Context) record(key string) *module.Record {
	if rec, ok := c.modules[key]; ok {
		return rec
	}
	rec := module.NewRecord(key)
	rec.Synthetic = c.synthetic[key]
	c.modules[key] = rec
	c.moduleN.Add(1)
	return rec
}

func (c *Context) advance(rec *module.Record, next module.State) error {
	from := rec.State
	if err := rec.Advance(next); err != nil {
		return &Error{Kind: ErrInternal, Message: err.Error(), Cause: err}
	}
	c.group.logger.Debug("module", "key", rec.Key, "from", from, "to", next)
	return nil
}

func (c *Context) fail(rec *module.Record, err error) error {
	if rec.Fail(err) {
		c.group.logger.Debug("module failed", "key", rec.Key, "err", err)
	}
	return err
}

// resolve prefers the built-in filesystem loader when it can handle spec
// and falls back to the host loader.
func (c *Context) resolve(referrer, spec string) (string, error) {
	loader, builtin := c.group.moduleLoader()
	if builtin != nil && builtin.Applicable(referrer, spec) {
		key, err := builtin.Resolve(referrer, spec)
		var re *module.ResolveError
		if err == nil || loader == nil || !errors.As(err, &re) {
			return key, err
		}
	}
	if loader != nil {
		return loader.Resolve(c, referrer, spec)
	}
	if c.synthetic[spec] {
		return spec, nil
	}
	return "", &module.ResolveError{Spec: spec, From: referrer}
}

func (c *Context) fetch(key string) (string, error) {
	loader, builtin := c.group.moduleLoader()
	if builtin != nil && builtin.Owns(key) {
		return builtin.Fetch(key)
	}
	if loader != nil {
		return loader.Fetch(c, key)
	}
	return "", fmt.Errorf("no module loader can fetch %q", key)
}

func (c *Context) track(v object.Value) error {
	if err := c.group.heap.Allocate(c.id, v); err != nil {
		return object.ThrowError(object.KindRangeError, "%s", err.Error())
	}
	return nil
}

// load fetches and parses rec, then loads every module it imports. A
// failure anywhere in the graph fails rec too.
func (c *Context) load(rec *module.Record) error {
	switch rec.State {
	case module.Failed:
		return rec.Err
	case module.Parsed, module.Linked, module.Evaluated:
		return nil
	}
	if rec.Synthetic {
		return c.evaluateSynthetic(rec)
	}
	if rec.State == module.Unresolved {
		src, err := c.fetch(rec.Key)
		if err != nil {
			return c.fail(rec, asException(object.KindError, err))
		}
		rec.Source = src
		if err := c.advance(rec, module.Fetched); err != nil {
			return err
		}
	}

	unit, perr := parser.Parse(parser.ModuleKind, rec.Key, rec.StartLine, rec.Source)
	if perr != nil {
		return c.fail(rec, syntaxException(perr))
	}
	exports, err := module.CollectExports(unit.Program, rec.Key)
	if err != nil {
		return c.fail(rec, object.ThrowError(object.KindSyntaxError, "%s", err.Error()))
	}
	rec.Unit, rec.Exports = unit, exports
	if err := c.advance(rec, module.Parsed); err != nil {
		return err
	}

	for _, spec := range module.ImportSpecifiers(unit.Program) {
		key, err := c.resolve(rec.Key, spec)
		if err != nil {
			return c.fail(rec, asException(object.KindError, err))
		}
		rec.Requests = append(rec.Requests, module.Request{Specifier: spec, Key: key})
		if err := c.load(c.record(key)); err != nil {
			return c.fail(rec, err)
		}
	}
	return nil
}

func (c *Context) evaluateSynthetic(rec *module.Record) error {
	loader, _ := c.group.moduleLoader()
	if loader == nil {
		return c.fail(rec, object.ThrowError(object.KindError, "no module loader to evaluate synthetic module %q", rec.Key))
	}
	v, err := loader.Evaluate(c, rec.Key)
	if err != nil {
		return c.fail(rec, asException(object.KindError, err))
	}
	var ns *object.Object
	switch x := v.(type) {
	case *object.Object:
		ns = x
	case nil, *object.Undefined:
		ns = object.NewObject()
	default:
		return c.fail(rec, object.ThrowError(object.KindTypeError, "synthetic module %q must evaluate to an object", rec.Key))
	}
	if err := c.track(ns); err != nil {
		return c.fail(rec, err)
	}
	rec.Namespace = ns
	rec.Result = ns
	return c.advance(rec, module.Evaluated)
}

// linkAndEvaluate links key's graph when needed and evaluates it.
func (c *Context) linkAndEvaluate(key string) (object.Value, error) {
	rec, ok := c.modules[key]
	if !ok {
		return nil, &Error{Kind: ErrModule, Message: fmt.Sprintf("module %q is not loaded", key)}
	}
	if rec.State == module.Failed {
		return nil, rec.Err
	}
	if rec.State < module.Linked {
		if err := c.link(rec); err != nil {
			return nil, err
		}
	}
	if err := c.evaluate(rec, map[*module.Record]bool{}); err != nil {
		return nil, err
	}
	return rec.Namespace, nil
}

// linkPlan holds everything a link creates until the whole graph has
// been checked.
type linkPlan struct {
	order  []*module.Record
	scopes map[*module.Record]*object.Environment
	spaces map[*module.Record]*object.Object
}

func (p *linkPlan) scope(r *module.Record) *object.Environment {
	if env, ok := p.scopes[r]; ok {
		return env
	}
	return r.Scope
}

func (p *linkPlan) namespace(r *module.Record) *object.Object {
	if r.Namespace != nil {
		return r.Namespace
	}
	return p.spaces[r]
}

// link binds the imports of every Parsed module reachable from root. If
// any binding fails root is marked Failed and every other record keeps
// its state.
func (c *Context) link(root *module.Record) error {
	plan := &linkPlan{
		scopes: map[*module.Record]*object.Environment{},
		spaces: map[*module.Record]*object.Object{},
	}
	if err := c.collect(root, plan, map[*module.Record]bool{}); err != nil {
		return c.fail(root, err)
	}

	for _, r := range plan.order {
		env := object.NewFunctionEnvironment(c.scope)
		for _, e := range r.Exports {
			if _, ok := env.GetHere(e.Local); !ok {
				env.Declare(e.Local, object.UNDEFINED, true)
			}
		}
		plan.scopes[r] = env
		plan.spaces[r] = namespaceOf(r, env)
	}

	for _, r := range plan.order {
		if err := c.bindImports(r, plan); err != nil {
			return c.fail(root, err)
		}
	}

	loader, _ := c.group.moduleLoader()
	metas := make([]*object.Object, len(plan.order))
	for i, r := range plan.order {
		meta := defaultImportMeta(r.Key)
		if loader != nil {
			m, err := loader.CreateImportMetaProperties(c, r.Key)
			if err != nil {
				return c.fail(root, asException(object.KindError, err))
			}
			if m != nil {
				meta = m
			}
		}
		metas[i] = meta
	}

	for i, r := range plan.order {
		for _, v := range []object.Value{plan.spaces[r], metas[i]} {
			if err := c.track(v); err != nil {
				return c.fail(root, err)
			}
		}
	}

	for i, r := range plan.order {
		env := plan.scopes[r]
		env.Declare(machine.ImportMetaName, metas[i], false)
		r.Scope = env
		r.Namespace = plan.spaces[r]
		r.Meta = metas[i]
		if err := c.advance(r, module.Linked); err != nil {
			return err
		}
	}
	return nil
}

// collect lists the Parsed records reachable from r, dependencies first.
func (c *Context) collect(r *module.Record, plan *linkPlan, seen map[*module.Record]bool) error {
	if seen[r] {
		return nil
	}
	seen[r] = true
	switch r.State {
	case module.Failed:
		return r.Err
	case module.Linked, module.Evaluated:
		return nil
	case module.Parsed:
	default:
		return &Error{Kind: ErrModule, Message: fmt.Sprintf("module %q is %s", r.Key, r.State)}
	}
	for _, req := range r.Requests {
		dep, ok := c.modules[req.Key]
		if !ok {
			return &Error{Kind: ErrInternal, Message: fmt.Sprintf("module %q is not registered", req.Key)}
		}
		if err := c.collect(dep, plan, seen); err != nil {
			return err
		}
	}
	plan.order = append(plan.order, r)
	return nil
}

func (c *Context) bindImports(r *module.Record, plan *linkPlan) error {
	env := plan.scopes[r]
	for _, imp := range module.Imports(r.Unit.Program) {
		key, _ := r.Request(imp.Source.Value)
		dep := c.modules[key]
		if imp.Namespace != nil {
			env.Declare(imp.Namespace.Value, plan.namespace(dep), false)
		}
		for _, s := range imp.Specifiers {
			name, local := s.Imported.Value, s.Local.Value
			if dep.Synthetic {
				v, ok := dep.Namespace.Get(name)
				if !ok {
					return missingExport(imp.Source.Value, name)
				}
				env.Declare(local, v, false)
				continue
			}
			target, ok := exportLocal(dep, name)
			if !ok || !env.Link(local, plan.scope(dep), target) {
				return missingExport(imp.Source.Value, name)
			}
		}
	}
	return nil
}

func missingExport(spec, name string) *object.Exception {
	return object.ThrowError(object.KindSyntaxError,
		"The requested module '%s' does not provide an export named '%s'", spec, name)
}

func exportLocal(r *module.Record, exported string) (string, bool) {
	for _, e := range r.Exports {
		if e.Exported == exported {
			return e.Local, true
		}
	}
	return "", false
}

// namespaceOf builds a read-only view of r's exports backed by env.
func namespaceOf(r *module.Record, env *object.Environment) *object.Object {
	ns := object.NewObject()
	ns.Class = "Module"
	locals := map[string]string{}
	for _, e := range r.Exports {
		locals[e.Exported] = e.Local
		ns.Set(e.Exported, object.UNDEFINED)
	}
	ns.Handler = object.PropertyFuncs{
		Get: func(name string) (object.Value, bool) {
			local, ok := locals[name]
			if !ok {
				return nil, false
			}
			return env.GetHere(local)
		},
		Set: func(string, object.Value) bool { return true },
	}
	return ns
}

// evaluate runs rec after its dependencies. Records already on the stack
// are skipped, which lets import cycles terminate.
func (c *Context) evaluate(rec *module.Record, active map[*module.Record]bool) error {
	switch rec.State {
	case module.Evaluated:
		return nil
	case module.Failed:
		return rec.Err
	case module.Linked:
	default:
		return &Error{Kind: ErrModule, Message: fmt.Sprintf("module %q is %s", rec.Key, rec.State)}
	}
	if active[rec] {
		return nil
	}
	active[rec] = true
	for _, req := range rec.Requests {
		if err := c.evaluate(c.modules[req.Key], active); err != nil {
			return c.fail(rec, err)
		}
	}
	res, err := c.machine.Execute(rec.Unit, c.state, object.UNDEFINED, rec.Scope)
	if err != nil {
		return c.fail(rec, err)
	}
	rec.Result = res
	return c.advance(rec, module.Evaluated)
}
