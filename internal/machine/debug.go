package machine

import (
	"tern/internal/ast"
	"tern/internal/object"
)

// SetPauseHandler installs h; nil disables pausing.
func (m *Machine) SetPauseHandler(h PauseHandler) { m.pause = h }

// SetBreakpoint pauses before any statement that starts on line of the
// unit or function loaded from sourceURL.
func (m *Machine) SetBreakpoint(sourceURL string, line int) {
	lines := m.breakpoints[sourceURL]
	if lines == nil {
		lines = map[int]bool{}
		m.breakpoints[sourceURL] = lines
	}
	lines[line] = true
}

func (m *Machine) ClearBreakpoints() {
	m.breakpoints = map[string]map[int]bool{}
}

// Step requests a pause before the next statement executed.
func (m *Machine) Step() { m.stepping = true }

// Pausing reports whether a pause handler is currently running.
func (m *Machine) Pausing() bool { return m.pausing }

// checkPause records the statement about to run in the current frame and
// calls the pause handler when a breakpoint, a debugger statement or a
// step request applies.
func (m *Machine) checkPause(st *ExecState, s ast.Statement, env *object.Environment) {
	f := st.frame
	if f == nil {
		return
	}
	tok := s.Start()
	f.Line, f.Column = tok.Line, tok.Col
	f.Scope = env

	if m.pause == nil || st.NoPause || m.pausing {
		return
	}
	_, isDebugger := s.(*ast.DebuggerStatement)
	if !isDebugger && !m.stepping && !m.breakpoints[f.SourceURL()][tok.Line] {
		return
	}
	m.stepping = false
	m.pausing = true
	defer func() { m.pausing = false }()
	m.logger.Debug("paused", "url", f.SourceURL(), "line", tok.Line)
	m.pause(f)
}
