package machine

import (
	"tern/internal/object"
	"tern/internal/parser"
)

// CalleeRegister is the callee slot of every frame. It is empty for
// program, eval and module frames.
const CalleeRegister = 0

// DefaultRegisterCapacity is the size of a register file when none is
// configured.
const DefaultRegisterCapacity = 1 << 16

type LayoutKind int

const (
	ProgramLayout LayoutKind = iota
	EvalLayout
	ModuleLayout
	FunctionLayout
)

func (k LayoutKind) String() string {
	switch k {
	case EvalLayout:
		return "eval"
	case ModuleLayout:
		return "module"
	case FunctionLayout:
		return "function"
	default:
		return "program"
	}
}

// CodeLayout says where a frame keeps its standard slots.
//
//	program, eval, module: [callee(empty), this]
//	function:              [callee, arg0 ... argN-1, this]
type CodeLayout struct {
	Kind          LayoutKind
	Name          string
	SourceURL     string
	NumParameters int
	ThisRegister  int
	Size          int
}

func unitLayout(unit *parser.Unit) *CodeLayout {
	kind := ProgramLayout
	switch unit.Kind {
	case parser.EvalKind:
		kind = EvalLayout
	case parser.ModuleKind:
		kind = ModuleLayout
	}
	return &CodeLayout{Kind: kind, SourceURL: unit.SourceURL, ThisRegister: 1, Size: 2}
}

func functionLayout(fn *object.Function) *CodeLayout {
	n := len(fn.Parameters())
	return &CodeLayout{
		Kind:          FunctionLayout,
		Name:          fn.Name,
		SourceURL:     fn.SourceURL,
		NumParameters: n,
		ThisRegister:  1 + n,
		Size:          2 + n,
	}
}

// RegisterFile is the fixed-capacity value stack frames are windows into.
type RegisterFile struct {
	regs  []object.Value
	top   int
	depth int
}

func NewRegisterFile(capacity int) *RegisterFile {
	if capacity <= 0 {
		capacity = DefaultRegisterCapacity
	}
	return &RegisterFile{regs: make([]object.Value, capacity)}
}

// Live returns the registers of every frame currently pushed.
func (rf *RegisterFile) Live() []object.Value { return rf.regs[:rf.top] }

// Depth is the number of frames currently pushed.
func (rf *RegisterFile) Depth() int { return rf.depth }

func (rf *RegisterFile) push(size int) ([]object.Value, int, bool) {
	if rf.top+size > len(rf.regs) {
		return nil, 0, false
	}
	base := rf.top
	rf.top += size
	rf.depth++
	return rf.regs[base:rf.top:rf.top], base, true
}

func (rf *RegisterFile) pop(base int) {
	clear(rf.regs[base:rf.top])
	rf.top = base
	rf.depth--
}

// Frame is one activation. Registers is a window into the state's
// register file; Layout is nil for native frames. A *Frame handed to a
// pause handler is only valid until the handler returns.
type Frame struct {
	Registers []object.Value
	Layout    *CodeLayout
	Scope     *object.Environment
	Caller    *Frame
	Line      int
	Column    int

	base    int
	state   *ExecState
	machine *Machine
}

// Callee returns the callee register, or nil when the frame has none.
func (f *Frame) Callee() object.Value {
	if len(f.Registers) == 0 {
		return nil
	}
	return f.Registers[CalleeRegister]
}

// This returns the receiver register; ok is false for native frames.
func (f *Frame) This() (object.Value, bool) {
	if f.Layout == nil {
		return nil, false
	}
	return f.Registers[f.Layout.ThisRegister], true
}

func (f *Frame) Machine() *Machine { return f.machine }
func (f *Frame) State() *ExecState { return f.state }

func (f *Frame) SourceURL() string {
	if f.Layout == nil {
		return ""
	}
	return f.Layout.SourceURL
}

// ExecState is the context a unit runs against: the global object and
// scope plus the register file frames are pushed onto.
type ExecState struct {
	Global      *object.Object
	GlobalScope *object.Environment
	Registers   *RegisterFile
	// NoPause suppresses pause handling while this state is running.
	NoPause bool

	frame *Frame
}

func NewExecState(global *object.Object, scope *object.Environment, registers *RegisterFile) *ExecState {
	if registers == nil {
		registers = NewRegisterFile(0)
	}
	return &ExecState{Global: global, GlobalScope: scope, Registers: registers}
}

// Frame returns the innermost frame running on this state, or nil.
func (st *ExecState) Frame() *Frame { return st.frame }

// Nested returns a state that shares st's global object, global scope and
// register file. Frames it pushes stack above st's current frame.
func (st *ExecState) Nested() *ExecState {
	return &ExecState{
		Global:      st.Global,
		GlobalScope: st.GlobalScope,
		Registers:   st.Registers,
		frame:       st.frame,
	}
}
