package runner

import (
	"context"
	"maps"
	"slices"

	"tacvm/pkg/interpreter"
	"tacvm/pkg/value"
)

// StopReason says why Continue or Step returned.
type StopReason int

const (
	StopFinished StopReason = iota
	StopHalted
	StopFaulted
	StopBreakpoint
	StopStepLimit
	StopMaxSteps
)

func (r StopReason) String() string {
	switch r {
	case StopFinished:
		return "finished"
	case StopHalted:
		return "halted"
	case StopFaulted:
		return "faulted"
	case StopBreakpoint:
		return "breakpoint"
	case StopStepLimit:
		return "step limit"
	case StopMaxSteps:
		return "max steps"
	default:
		return "unknown"
	}
}

// Session drives an interpreter with breakpoints on source lines and a
// list of watched variables.
type Session struct {
	it          *interpreter.Interpreter
	breakpoints map[int]struct{}
	watches     []string
	maxSteps    int

	// pc of the last breakpoint stop; Continue steps over it once
	pausedAt int
}

// Watch is a watched variable and its current value.
type Watch struct {
	Name  string
	Value value.Value
}

func NewSession(it *interpreter.Interpreter, breakpoints []int, watches []string, maxSteps int) *Session {
	s := &Session{
		it:          it,
		breakpoints: make(map[int]struct{}),
		maxSteps:    maxSteps,
		pausedAt:    -1,
	}
	for _, line := range breakpoints {
		s.breakpoints[line] = struct{}{}
	}
	for _, name := range watches {
		s.AddWatch(name)
	}
	return s
}

func (s *Session) Interpreter() *interpreter.Interpreter {
	return s.it
}

// ToggleBreakpoint sets or clears a breakpoint and reports whether it is set.
func (s *Session) ToggleBreakpoint(line int) bool {
	if _, ok := s.breakpoints[line]; ok {
		delete(s.breakpoints, line)
		return false
	}
	s.breakpoints[line] = struct{}{}
	return true
}

// Breakpoints returns the breakpoint lines in ascending order.
func (s *Session) Breakpoints() []int {
	return slices.Sorted(maps.Keys(s.breakpoints))
}

func (s *Session) AddWatch(name string) {
	if name != "" && !slices.Contains(s.watches, name) {
		s.watches = append(s.watches, name)
	}
}

func (s *Session) RemoveWatch(name string) {
	s.watches = slices.DeleteFunc(s.watches, func(w string) bool { return w == name })
}

// Watches reads every watched variable in the current scope.
func (s *Session) Watches() []Watch {
	out := make([]Watch, 0, len(s.watches))
	for _, name := range s.watches {
		v, err := s.it.Lookup(name)
		if err != nil {
			v = value.Absent()
		}
		out = append(out, Watch{Name: name, Value: v})
	}
	return out
}

// Continue steps until the program stops or the next instruction sits on a
// breakpoint line. The instruction a previous Continue paused at is executed
// rather than reported again.
func (s *Session) Continue(ctx context.Context) (StopReason, error) {
	for s.it.Running() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if s.maxSteps > 0 && s.it.Steps() >= s.maxSteps {
			return StopMaxSteps, nil
		}

		pc := s.it.PC()
		if in, ok := s.it.Program().At(pc); ok && pc != s.pausedAt {
			if _, hit := s.breakpoints[in.Line]; hit {
				s.pausedAt = pc
				return StopBreakpoint, nil
			}
		}

		s.pausedAt = -1
		s.it.Step()
	}
	return s.stopped(), nil
}

// Step executes up to n instructions, ignoring breakpoints.
func (s *Session) Step(ctx context.Context, n int) (StopReason, error) {
	for done := 0; done < n; done++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !s.it.Running() {
			return s.stopped(), nil
		}
		if s.maxSteps > 0 && s.it.Steps() >= s.maxSteps {
			return StopMaxSteps, nil
		}

		s.pausedAt = -1
		s.it.Step()
	}

	if s.it.Running() {
		return StopStepLimit, nil
	}
	return s.stopped(), nil
}

func (s *Session) stopped() StopReason {
	switch {
	case s.it.LastFault() != nil:
		return StopFaulted
	case s.it.Halted():
		return StopHalted
	default:
		return StopFinished
	}
}
