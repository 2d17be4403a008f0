package object

import (
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindError          ErrorKind = "Error"
	KindSyntaxError    ErrorKind = "SyntaxError"
	KindReferenceError ErrorKind = "ReferenceError"
	KindTypeError      ErrorKind = "TypeError"
	KindRangeError     ErrorKind = "RangeError"
)

// Kinds lists every error kind; each has a global constructor.
var Kinds = []ErrorKind{KindError, KindSyntaxError, KindReferenceError, KindTypeError, KindRangeError}

// Error is an engine-native error value. Line and Column are 1-based and
// zero when unknown.
type Error struct {
	Kind      ErrorKind
	Message   string
	Line      int
	Column    int
	SourceURL string
	Stack     string

	props *Object
}

func NewError(kind ErrorKind, format string, a ...any) *Error {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return &Error{Kind: kind, Message: msg}
}

func (*Error) Type() Type { return ERROR_OBJ }

func (e *Error) Inspect() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Get reads the built-in error fields, then any properties set by script.
func (e *Error) Get(name string) (Value, bool) {
	switch name {
	case "name":
		return &String{Value: string(e.Kind)}, true
	case "message":
		return &String{Value: e.Message}, true
	case "stack":
		return &String{Value: e.Stack}, true
	case "line":
		return &Number{Value: float64(e.Line)}, true
	case "column":
		return &Number{Value: float64(e.Column)}, true
	case "sourceURL":
		return &String{Value: e.SourceURL}, true
	}
	if e.props == nil {
		return nil, false
	}
	return e.props.Get(name)
}

func (e *Error) Set(name string, v Value) {
	if name == "message" {
		e.Message = v.Inspect()
		return
	}
	if e.props == nil {
		e.props = NewObject()
	}
	e.props.Set(name, v)
}

// Properties returns script-set properties, or nil.
func (e *Error) Properties() *Object { return e.props }

// Location formats "url:line:col" for diagnostics.
func (e *Error) Location() string {
	if e.Line == 0 {
		return ""
	}
	url := e.SourceURL
	if url == "" {
		url = "<anonymous>"
	}
	return fmt.Sprintf("%s:%d:%d", url, e.Line, e.Column)
}

// Exception carries a thrown script value. Inside the machine it travels
// as a completion signal; across Go APIs it is the error result.
type Exception struct {
	Value Value
}

func Throw(v Value) *Exception { return &Exception{Value: v} }

func ThrowError(kind ErrorKind, format string, a ...any) *Exception {
	return &Exception{Value: NewError(kind, format, a...)}
}

func (*Exception) Type() Type { return EXCEPTION_OBJ }

func (e *Exception) Inspect() string {
	if e.Value == nil {
		return "undefined"
	}
	return e.Value.Inspect()
}

func (e *Exception) Error() string {
	if errVal, ok := e.Value.(*Error); ok {
		var b strings.Builder
		b.WriteString(errVal.Inspect())
		if loc := errVal.Location(); loc != "" {
			b.WriteString(" (")
			b.WriteString(loc)
			b.WriteString(")")
		}
		return b.String()
	}
	return "uncaught " + inspect(e.Value, 1)
}

// ErrorValue returns the thrown value when it is an engine error.
func (e *Exception) ErrorValue() (*Error, bool) {
	errVal, ok := e.Value.(*Error)
	return errVal, ok
}

// Kind returns the thrown error's kind, or "" for non-error values.
func (e *Exception) Kind() ErrorKind {
	if errVal, ok := e.Value.(*Error); ok {
		return errVal.Kind
	}
	return ""
}
