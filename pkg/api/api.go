// Package api is the C-style embedding surface of tern. Values, strings
// and contexts are opaque references, strings are UTF-16, and every
// fallible call takes an optional exception slot: a nil slot means the
// caller does not want failure detail, and a slot that is not written
// means success.
//
// A StringRef keeps its UTF-16 code units, but everything handed to the
// engine (script text, source URLs, module keys, string values) is
// converted to UTF-8 first, so a lone surrogate there becomes U+FFFD.
package api

import (
	"errors"
	"fmt"

	"tern/internal/debugger"
	"tern/internal/engine"
	"tern/internal/jsstring"
	"tern/internal/object"
)

type (
	ContextGroupRef  = *engine.ContextGroup
	GlobalContextRef = *engine.Context
	ValueRef         = object.Value
	ObjectRef        = *object.Object
	StringRef        = *jsstring.String
	CallFrameRef     = *debugger.CallFrame
)

// ModuleLoaderResolve maps keyValue, a specifier imported by referrerValue
// (undefined at top level), to a module key. A nil result fails the
// import.
type ModuleLoaderResolve func(ctx GlobalContextRef, keyValue, referrerValue, scriptFetcher ValueRef) StringRef

// ModuleLoaderEvaluate returns the namespace of a synthetic module.
type ModuleLoaderEvaluate func(ctx GlobalContextRef, key ValueRef) ValueRef

// ModuleLoaderFetch returns the source of key; nil fails the fetch.
type ModuleLoaderFetch func(ctx GlobalContextRef, key, attributesValue, scriptFetcher ValueRef) StringRef

// ModuleLoaderCreateImportMetaProperties returns the import.meta object of
// key; nil gives the default { url: key }.
type ModuleLoaderCreateImportMetaProperties func(ctx GlobalContextRef, key, scriptFetcher ValueRef) ObjectRef

// APIModuleLoader is the loader table installed by SetAPIModuleLoader.
// Any callback may be nil.
type APIModuleLoader struct {
	DisableBuiltinFileSystemLoader         bool
	ModuleLoaderResolve                    ModuleLoaderResolve
	ModuleLoaderEvaluate                   ModuleLoaderEvaluate
	ModuleLoaderFetch                      ModuleLoaderFetch
	ModuleLoaderCreateImportMetaProperties ModuleLoaderCreateImportMetaProperties
}

/* -------------------- contexts -------------------- */

func ContextGroupCreate() ContextGroupRef { return engine.NewContextGroup() }

// GlobalContextCreate creates a context in a group of its own.
func GlobalContextCreate() GlobalContextRef { return engine.NewContext() }

func GlobalContextCreateInGroup(group ContextGroupRef) GlobalContextRef {
	if group == nil {
		return GlobalContextCreate()
	}
	return group.NewContext()
}

func GlobalContextRelease(ctx GlobalContextRef) { ctx.Release() }

func ContextGetGlobalObject(ctx GlobalContextRef) ObjectRef {
	if ctx == nil {
		return nil
	}
	return ctx.Global()
}

/* -------------------- strings -------------------- */

func StringCreateWithCharacters(chars []uint16) StringRef { return jsstring.FromUTF16(chars) }

func StringCreateWithUTF8CString(s string) StringRef { return jsstring.FromString(s) }

// StringCreateWithUTF16Bytes decodes a UTF-16 byte buffer. A byte order
// mark overrides bigEndian. It returns nil for malformed input.
func StringCreateWithUTF16Bytes(b []byte, bigEndian bool) StringRef {
	s, err := jsstring.FromUTF16Bytes(b, bigEndian)
	if err != nil {
		return nil
	}
	return s
}

func StringGetLength(s StringRef) int {
	if s == nil {
		return 0
	}
	return s.Len()
}

func StringGetCharacters(s StringRef) []uint16 {
	if s == nil {
		return nil
	}
	return s.UTF16()
}

func StringGetUTF8CString(s StringRef) string {
	if s == nil {
		return ""
	}
	return s.String()
}

func StringIsEqual(a, b StringRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

/* -------------------- values -------------------- */

func ValueMakeUndefined(GlobalContextRef) ValueRef { return object.UNDEFINED }
func ValueMakeNull(GlobalContextRef) ValueRef      { return object.NULL }

func ValueMakeNumber(_ GlobalContextRef, n float64) ValueRef { return &object.Number{Value: n} }
func ValueMakeBoolean(_ GlobalContextRef, b bool) ValueRef   { return object.NativeBool(b) }

func ValueMakeString(_ GlobalContextRef, s StringRef) ValueRef {
	return &object.String{Value: StringGetUTF8CString(s)}
}

// ValueToStringCopy renders v the way print does.
func ValueToStringCopy(_ GlobalContextRef, v ValueRef, exception *ValueRef) StringRef {
	if v == nil {
		setException(exception, engine.ErrEval, errors.New("nil value"))
		return nil
	}
	return jsstring.FromString(v.Inspect())
}

func ValueIsUndefined(_ GlobalContextRef, v ValueRef) bool {
	_, ok := v.(*object.Undefined)
	return ok
}

func ValueIsObject(_ GlobalContextRef, v ValueRef) bool {
	_, ok := v.(*object.Object)
	return ok
}

// ValueProtect keeps v alive across collections until a matching
// ValueUnprotect.
func ValueProtect(ctx GlobalContextRef, v ValueRef) {
	if ctx != nil {
		ctx.Protect(v)
	}
}

func ValueUnprotect(ctx GlobalContextRef, v ValueRef) {
	if ctx != nil {
		ctx.Unprotect(v)
	}
}

func ObjectMake(GlobalContextRef) ObjectRef { return object.NewObject() }

func ObjectGetProperty(_ GlobalContextRef, o ObjectRef, name StringRef, exception *ValueRef) ValueRef {
	if o == nil {
		setException(exception, engine.ErrEval, errors.New("cannot read property of null object"))
		return nil
	}
	v, ok := o.Get(StringGetUTF8CString(name))
	if !ok {
		return object.UNDEFINED
	}
	return v
}

func ObjectSetProperty(_ GlobalContextRef, o ObjectRef, name StringRef, v ValueRef, exception *ValueRef) {
	if o == nil {
		setException(exception, engine.ErrEval, errors.New("cannot set property of null object"))
		return
	}
	o.Set(StringGetUTF8CString(name), v)
}

/* -------------------- scripts -------------------- */

// EvaluateScript runs script against ctx's global object. A nil
// thisObject means the global object. It returns nil if an exception was
// thrown.
func EvaluateScript(ctx GlobalContextRef, script StringRef, thisObject ObjectRef, sourceURL StringRef, startingLineNumber int, exception *ValueRef) ValueRef {
	var this object.Value
	if thisObject != nil {
		this = thisObject
	}
	v, err := ctx.EvaluateScript(StringGetUTF8CString(script), this, StringGetUTF8CString(sourceURL), startingLineNumber)
	if err != nil {
		report(exception, err)
		return nil
	}
	return v
}

// CheckScriptSyntax reports whether script parses; the SyntaxError goes to
// exception otherwise.
func CheckScriptSyntax(ctx GlobalContextRef, script StringRef, sourceURL StringRef, startingLineNumber int, exception *ValueRef) bool {
	ok, err := ctx.CheckScriptSyntax(StringGetUTF8CString(script), StringGetUTF8CString(sourceURL), startingLineNumber)
	if err != nil {
		report(exception, err)
		return false
	}
	return ok
}

func GarbageCollect(ctx GlobalContextRef) {
	if ctx != nil {
		ctx.GarbageCollect()
	}
}

func GetMemoryUsageStatistics(ctx GlobalContextRef) ObjectRef {
	if ctx == nil {
		return nil
	}
	return ctx.MemoryUsageStatistics()
}

/* -------------------- modules -------------------- */

// SetAPIModuleLoader installs loader on ctx's group. Install it before
// any module operation.
func SetAPIModuleLoader(ctx GlobalContextRef, loader APIModuleLoader) {
	if ctx == nil {
		return
	}
	ctx.SetModuleLoader(apiLoader{loader}, loader.DisableBuiltinFileSystemLoader)
}

func LoadAndEvaluateModule(ctx GlobalContextRef, filename StringRef, exception *ValueRef) ValueRef {
	v, err := ctx.LoadAndEvaluateModule(StringGetUTF8CString(filename))
	if err != nil {
		report(exception, err)
		return nil
	}
	return v
}

func LoadAndEvaluateModuleFromSource(ctx GlobalContextRef, module StringRef, sourceURL StringRef, startingLineNumber int, exception *ValueRef) ValueRef {
	v, err := ctx.LoadAndEvaluateModuleFromSource(StringGetUTF8CString(module), StringGetUTF8CString(sourceURL), startingLineNumber)
	if err != nil {
		report(exception, err)
		return nil
	}
	return v
}

// LoadModule loads moduleKey and its imports without evaluating them and
// returns the resolved key.
func LoadModule(ctx GlobalContextRef, moduleKey StringRef, exception *ValueRef) StringRef {
	key, err := ctx.LoadModule(StringGetUTF8CString(moduleKey))
	if err != nil {
		report(exception, err)
	}
	if key == "" {
		return nil
	}
	return jsstring.FromString(key)
}

func LoadModuleFromSource(ctx GlobalContextRef, module StringRef, sourceURL StringRef, startingLineNumber int, exception *ValueRef) StringRef {
	key, err := ctx.LoadModuleFromSource(StringGetUTF8CString(module), StringGetUTF8CString(sourceURL), startingLineNumber)
	if err != nil {
		report(exception, err)
	}
	if key == "" {
		return nil
	}
	return jsstring.FromString(key)
}

// LinkAndEvaluateModule returns the module's namespace, or nil if linking
// or evaluation failed.
func LinkAndEvaluateModule(ctx GlobalContextRef, moduleKey StringRef, exception *ValueRef) ValueRef {
	v, err := ctx.LinkAndEvaluateModule(StringGetUTF8CString(moduleKey))
	if err != nil {
		report(exception, err)
		return nil
	}
	return v
}

func SetSyntheticModuleKeys(ctx GlobalContextRef, keys []StringRef) {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != nil {
			names = append(names, k.String())
		}
	}
	if err := ctx.SetSyntheticModuleKeys(names...); err != nil && ctx != nil {
		ctx.Group().Logger().Warn("synthetic module keys not set", "keys", names, "err", err)
	}
}

type apiLoader struct {
	table APIModuleLoader
}

func keyValue(key string) ValueRef {
	if key == "" {
		return object.UNDEFINED
	}
	return &object.String{Value: key}
}

func (l apiLoader) Resolve(ctx *engine.Context, referrer, specifier string) (string, error) {
	if l.table.ModuleLoaderResolve == nil {
		return "", fmt.Errorf("no resolve callback for module %q", specifier)
	}
	key := l.table.ModuleLoaderResolve(ctx, keyValue(specifier), keyValue(referrer), object.UNDEFINED)
	if key == nil {
		return "", fmt.Errorf("cannot resolve module %q", specifier)
	}
	return key.String(), nil
}

func (l apiLoader) Fetch(ctx *engine.Context, key string) (string, error) {
	if l.table.ModuleLoaderFetch == nil {
		return "", fmt.Errorf("no fetch callback for module %q", key)
	}
	src := l.table.ModuleLoaderFetch(ctx, keyValue(key), object.UNDEFINED, object.UNDEFINED)
	if src == nil {
		return "", fmt.Errorf("cannot fetch module %q", key)
	}
	return src.String(), nil
}

func (l apiLoader) Evaluate(ctx *engine.Context, key string) (object.Value, error) {
	if l.table.ModuleLoaderEvaluate == nil {
		return nil, fmt.Errorf("no evaluate callback for synthetic module %q", key)
	}
	v := l.table.ModuleLoaderEvaluate(ctx, keyValue(key))
	if v == nil {
		return nil, fmt.Errorf("cannot evaluate synthetic module %q", key)
	}
	return v, nil
}

func (l apiLoader) CreateImportMetaProperties(ctx *engine.Context, key string) (*object.Object, error) {
	if l.table.ModuleLoaderCreateImportMetaProperties == nil {
		return nil, nil
	}
	return l.table.ModuleLoaderCreateImportMetaProperties(ctx, keyValue(key), object.UNDEFINED), nil
}

/* -------------------- debugger -------------------- */

// SetDebuggerPauseHandler calls handler whenever ctx pauses; nil removes
// it. The frame is only valid during the call.
func SetDebuggerPauseHandler(ctx GlobalContextRef, handler func(ctx GlobalContextRef, frame CallFrameRef)) {
	if ctx == nil {
		return
	}
	if handler == nil {
		ctx.SetPauseHandler(nil)
		return
	}
	ctx.SetPauseHandler(func(cf *debugger.CallFrame) { handler(ctx, cf) })
}

// DebuggerCallFrameEvaluate runs script in frame. A frame without a code
// layout refuses: the result is nil and exception is left untouched.
func DebuggerCallFrameEvaluate(frame CallFrameRef, script StringRef, exception *ValueRef) ValueRef {
	if frame == nil {
		return nil
	}
	v, err := frame.Evaluate(StringGetUTF8CString(script))
	if err != nil {
		report(exception, err)
		return nil
	}
	return v
}

func DebuggerCallFrameGetFunctionName(frame CallFrameRef) StringRef {
	if frame == nil {
		return nil
	}
	name, ok := frame.FunctionName()
	if !ok {
		return nil
	}
	return jsstring.FromString(name)
}

func DebuggerCallFrameGetThisObject(frame CallFrameRef) ValueRef {
	if frame == nil {
		return nil
	}
	v, ok := frame.ThisObject()
	if !ok {
		return nil
	}
	return v
}

// report writes err to the exception slot. Script exceptions carry their
// thrown value; refusals write nothing; other failures become Error
// values.
func report(exception *ValueRef, err error) {
	if errors.Is(err, debugger.ErrNoCodeLayout) {
		return
	}
	var exc *object.Exception
	if errors.As(err, &exc) {
		if exception != nil {
			*exception = exc.Value
		}
		return
	}
	setException(exception, engine.ErrInternal, err)
}

func setException(exception *ValueRef, kind engine.ErrorKind, err error) {
	if exception == nil {
		return
	}
	var ee *engine.Error
	if !errors.As(err, &ee) {
		ee = &engine.Error{Kind: kind, Message: err.Error(), Cause: err}
	}
	*exception = object.NewError(object.KindError, "%s", ee.Error())
}
