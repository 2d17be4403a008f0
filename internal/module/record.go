package module

import (
	"fmt"

	"tern/internal/object"
	"tern/internal/parser"
)

type State int

const (
	Unresolved State = iota
	Fetched
	Parsed
	Linked
	Evaluated
	Failed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Fetched:
		return "fetched"
	case Parsed:
		return "parsed"
	case Linked:
		return "linked"
	case Evaluated:
		return "evaluated"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Evaluated || s == Failed }

// TransitionError reports an attempt to move a record backwards or out of
// a terminal state.
type TransitionError struct {
	Key  string
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("module %q: invalid transition %s -> %s", e.Key, e.From, e.To)
}

// Request is one import of a module: the specifier as written and the key
// it resolved to.
type Request struct {
	Specifier string
	Key       string
}

// Record is the engine's state for one module key.
type Record struct {
	Key       string
	State     State
	Synthetic bool

	Source    string
	StartLine int
	Unit      *parser.Unit
	Requests  []Request
	Exports   []Export

	Scope     *object.Environment
	Namespace *object.Object
	Meta      *object.Object
	Result    object.Value
	Err       error
}

func NewRecord(key string) *Record {
	return &Record{Key: key, State: Unresolved, StartLine: 1}
}

// Advance moves the record forward to next. Steps may be skipped, so a
// synthetic module goes from Unresolved straight to Evaluated; Failed is
// reachable from any non-terminal state.
func (r *Record) Advance(next State) error {
	if r.State.Terminal() || next <= r.State {
		return &TransitionError{Key: r.Key, From: r.State, To: next}
	}
	r.State = next
	return nil
}

// Fail moves the record to Failed and remembers err. It reports false when
// the record was already terminal.
func (r *Record) Fail(err error) bool {
	if advErr := r.Advance(Failed); advErr != nil {
		return false
	}
	r.Err = err
	return true
}

// Request returns the key spec resolved to, if it was imported.
func (r *Record) Request(spec string) (string, bool) {
	for _, req := range r.Requests {
		if req.Specifier == spec {
			return req.Key, true
		}
	}
	return "", false
}
