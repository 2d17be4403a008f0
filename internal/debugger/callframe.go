// Package debugger exposes paused machine frames to hosts: identity
// queries, a backtrace, and evaluation of new source inside a frame's
// scope with the frame's receiver.
package debugger

import (
	"errors"

	"tern/internal/machine"
	"tern/internal/object"
	"tern/internal/parser"
)

// ErrNoCodeLayout is returned by Evaluate on frames without a code layout
// (native frames). It is a refusal, not a script exception.
var ErrNoCodeLayout = errors.New("debugger: call frame has no code layout")

type FrameType int

const (
	ProgramType FrameType = iota
	FunctionType
)

func (t FrameType) String() string {
	if t == FunctionType {
		return "function"
	}
	return "program"
}

// CallFrame is a view of a paused frame. It is only valid while the pause
// handler that received it is running.
type CallFrame struct {
	frame *machine.Frame
}

// Wrap returns a view of f, or nil when f is nil.
func Wrap(f *machine.Frame) *CallFrame {
	if f == nil {
		return nil
	}
	return &CallFrame{frame: f}
}

// Frame returns the underlying machine frame.
func (cf *CallFrame) Frame() *machine.Frame { return cf.frame }

// Type classifies the frame by its callee register.
func (cf *CallFrame) Type() FrameType {
	switch cf.frame.Callee().(type) {
	case *object.Function, *object.Builtin:
		return FunctionType
	}
	return ProgramType
}

// FunctionName returns the callee's name. ok is false for frames without
// a code layout or without a callee; anonymous functions give "", true.
func (cf *CallFrame) FunctionName() (name string, ok bool) {
	if cf.frame.Layout == nil {
		return "", false
	}
	switch fn := cf.frame.Callee().(type) {
	case *object.Function:
		return fn.Name, true
	case *object.Builtin:
		return fn.Name, true
	}
	return "", false
}

// ThisObject returns the frame's receiver; ok is false without a code
// layout.
func (cf *CallFrame) ThisObject() (object.Value, bool) {
	v, ok := cf.frame.This()
	if !ok {
		return nil, false
	}
	if v == nil {
		v = object.UNDEFINED
	}
	return v, true
}

func (cf *CallFrame) Line() int         { return cf.frame.Line }
func (cf *CallFrame) Column() int       { return cf.frame.Column }
func (cf *CallFrame) SourceURL() string { return cf.frame.SourceURL() }

// Caller returns the next frame outward, or nil at the outermost frame.
func (cf *CallFrame) Caller() *CallFrame { return Wrap(cf.frame.Caller) }

// Scope returns the scope chain active at the paused statement.
func (cf *CallFrame) Scope() *object.Environment { return cf.frame.Scope }

// Evaluate runs source as eval code in the frame: it sees the frame's
// bindings and receiver, var declarations land in the frame's var scope,
// and pausing is suppressed while it runs. Syntax and runtime failures
// come back as *object.Exception.
func (cf *CallFrame) Evaluate(source string) (object.Value, error) {
	f := cf.frame
	if f.Layout == nil {
		return nil, ErrNoCodeLayout
	}
	st := f.State().Nested()
	st.NoPause = true

	unit, perr := parser.Parse(parser.EvalKind, "", 1, source)
	if perr != nil {
		return nil, object.Throw(&object.Error{
			Kind:    object.KindSyntaxError,
			Message: perr.Message,
			Line:    perr.Line,
			Column:  perr.Column,
		})
	}

	this, _ := cf.ThisObject()
	scope := f.Scope
	if scope == nil {
		scope = st.GlobalScope
	}
	return f.Machine().Execute(unit, st, this, scope)
}

// Backtrace lists cf and every frame outward from it.
func (cf *CallFrame) Backtrace() []*CallFrame {
	var out []*CallFrame
	for cur := cf; cur != nil; cur = cur.Caller() {
		out = append(out, cur)
	}
	return out
}
