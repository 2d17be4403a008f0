package engine

import (
	"fmt"

	"tern/internal/object"
)

// ModuleLoader is the host's module loader table. The engine calls it
// synchronously from the operation that needs a module, with the
// context's execution lock held, so implementations must not call back
// into the context's host surface.
type ModuleLoader interface {
	// Resolve maps specifier, imported by the module keyed referrer (""
	// at top level), to a module key.
	Resolve(ctx *Context, referrer, specifier string) (string, error)
	// Fetch returns the source text of key.
	Fetch(ctx *Context, key string) (string, error)
	// Evaluate produces the namespace of a synthetic module.
	Evaluate(ctx *Context, key string) (object.Value, error)
	// CreateImportMetaProperties returns the import.meta object of key.
	CreateImportMetaProperties(ctx *Context, key string) (*object.Object, error)
}

// LoaderFuncs adapts a partial set of functions to ModuleLoader. A nil
// Resolve or Fetch fails the step, a nil Evaluate gives synthetic modules
// an empty namespace, and a nil CreateImportMetaProperties gives
// { url: key }.
type LoaderFuncs struct {
	ResolveFunc                    func(ctx *Context, referrer, specifier string) (string, error)
	FetchFunc                      func(ctx *Context, key string) (string, error)
	EvaluateFunc                   func(ctx *Context, key string) (object.Value, error)
	CreateImportMetaPropertiesFunc func(ctx *Context, key string) (*object.Object, error)
}

func (f LoaderFuncs) Resolve(ctx *Context, referrer, specifier string) (string, error) {
	if f.ResolveFunc == nil {
		return "", fmt.Errorf("no resolver for module %q", specifier)
	}
	return f.ResolveFunc(ctx, referrer, specifier)
}

func (f LoaderFuncs) Fetch(ctx *Context, key string) (string, error) {
	if f.FetchFunc == nil {
		return "", fmt.Errorf("no fetcher for module %q", key)
	}
	return f.FetchFunc(ctx, key)
}

func (f LoaderFuncs) Evaluate(ctx *Context, key string) (object.Value, error) {
	if f.EvaluateFunc == nil {
		return object.NewObject(), nil
	}
	return f.EvaluateFunc(ctx, key)
}

func (f LoaderFuncs) CreateImportMetaProperties(ctx *Context, key string) (*object.Object, error) {
	if f.CreateImportMetaPropertiesFunc == nil {
		return defaultImportMeta(key), nil
	}
	return f.CreateImportMetaPropertiesFunc(ctx, key)
}

func defaultImportMeta(key string) *object.Object {
	meta := object.NewObject()
	meta.Set("url", &object.String{Value: key})
	return meta
}
