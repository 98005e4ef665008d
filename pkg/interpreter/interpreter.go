package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"tacvm/pkg/program"
	"tacvm/pkg/stack"
	"tacvm/pkg/value"
)

// Status is the execution state of the engine.
type Status int

const (
	StatusNotLoaded Status = iota
	StatusLoaded
	StatusFinished
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusFinished:
		return "finished"
	case StatusErrored:
		return "errored"
	default:
		return "not loaded"
	}
}

// Interpreter executes a loaded 3AC program one instruction at a time. It is
// not safe for concurrent use: a Step must not overlap another Step or any
// accessor call on the same Interpreter.
type Interpreter struct {
	prog *program.Program
	pc   int

	globals map[string]value.Value
	stack   *stack.Stack[*Frame]
	heap    *Heap
	params  []value.Value // pending-parameter buffer, drained by CALL

	running bool
	halted  bool
	fault   *Fault

	out    io.Writer   // console sink for PRINT output, warnings and faults
	logger *log.Logger // diagnostic logging

	heapSize int
	maxSteps int // maximum steps for Run (0 = unlimited)
	steps    int // steps executed since load
}

type Option func(*Interpreter)

// WithWriter sets the console the engine appends its output lines to
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithMaxSteps makes Run stop with ErrMaxStepsExceeded after n steps
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithHeapSize sets the number of heap slots available after a load
func WithHeapSize(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.heapSize = n
		}
	}
}

// NewInterpreter creates an interpreter with no program loaded
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		heapSize: DefaultHeapSize,
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}
	if it.logger == nil {
		it.logger = log.Default()
	}

	it.Reset()
	return it
}

// Reset discards the program and all runtime state.
func (i *Interpreter) Reset() {
	i.prog = nil
	i.resetState()
}

func (i *Interpreter) resetState() {
	i.pc = 0
	i.globals = make(map[string]value.Value)
	i.stack = stack.New[*Frame]()
	i.heap = NewHeap(i.heapSize)
	i.params = nil
	i.running = false
	i.halted = false
	i.fault = nil
	i.steps = 0
}

// Load parses program text and installs it with a fresh state. On error no
// program is installed and the interpreter is left not loaded.
func (i *Interpreter) Load(text string) error {
	i.Reset()

	p, err := program.Load(text)
	if err != nil {
		i.logger.Error("Failed to load program", "error", err)
		return err
	}

	i.LoadProgram(p)
	return nil
}

// LoadProgram installs an already parsed program with a fresh state.
func (i *Interpreter) LoadProgram(p *program.Program) {
	i.Reset()
	i.prog = p
	i.running = true
	i.logger.Debug("Program loaded", "instructions", p.Len(), "labels", len(p.Labels()))
}

// Step executes exactly one instruction. It reports whether there is more to
// execute; false means the program finished, halted or faulted. Faults are
// written to the console and kept in LastFault.
func (i *Interpreter) Step() bool {
	if i.prog == nil || !i.running || i.halted || i.pc < 0 || i.pc >= i.prog.Len() {
		i.running = false
		return false
	}

	pc := i.pc
	in, _ := i.prog.At(pc)
	i.steps++
	i.logger.Debug("Step", "pc", pc, "line", in.Line, "op", in.Op)

	if f := i.exec(in); f != nil {
		i.fail(pc, in, f)
		return false
	}

	if !i.running {
		return false
	}

	if i.pc >= i.prog.Len() {
		i.running = false
		return false
	}

	return true
}

func (i *Interpreter) fail(pc int, in program.Instruction, f *Fault) {
	f.PC = pc
	f.Line = in.Line
	f.Op = in.Op

	i.fault = f
	i.running = false

	i.logger.Error("Runtime fault", "pc", pc, "line", in.Line, "op", in.Op, "fault", f.Kind, "error", f.Msg)
	i.console(f.Error())
}

// Run steps until the program stops. It returns the fault that stopped it,
// ErrMaxStepsExceeded, or the context error if ctx is cancelled between steps.
func (i *Interpreter) Run(ctx context.Context) error {
	if i.prog == nil {
		return ErrNotLoaded
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i.maxSteps > 0 && i.steps >= i.maxSteps {
			return ErrMaxStepsExceeded
		}

		if !i.Step() {
			break
		}
	}

	if i.fault != nil {
		return i.fault
	}
	return nil
}

func (i *Interpreter) console(line string) {
	fmt.Fprintln(i.out, line)
}

func (i *Interpreter) Status() Status {
	switch {
	case i.prog == nil:
		return StatusNotLoaded
	case i.fault != nil:
		return StatusErrored
	case !i.running:
		return StatusFinished
	default:
		return StatusLoaded
	}
}

// Program returns the loaded program, or nil
func (i *Interpreter) Program() *program.Program {
	return i.prog
}

// PC returns the program counter
func (i *Interpreter) PC() int {
	return i.pc
}

// Running reports whether Step may execute another instruction
func (i *Interpreter) Running() bool {
	return i.running
}

// Halted reports whether a HALT instruction was executed
func (i *Interpreter) Halted() bool {
	return i.halted
}

// LastFault returns the fault that stopped the program, if any
func (i *Interpreter) LastFault() *Fault {
	return i.fault
}

// Steps returns the number of instructions executed since the last load
func (i *Interpreter) Steps() int {
	return i.steps
}

// Globals returns a copy of the global scope
func (i *Interpreter) Globals() map[string]value.Value {
	return maps.Clone(i.globals)
}

// CallStack returns copies of the active frames, bottom first
func (i *Interpreter) CallStack() []Frame {
	frames := i.stack.Array()
	out := make([]Frame, len(frames))
	for n, f := range frames {
		out[n] = f.clone()
	}
	return out
}

// Heap returns a copy of the heap slots
func (i *Interpreter) Heap() []value.Value {
	return i.heap.Slots()
}

// FreeList returns the free heap indices in reuse order
func (i *Interpreter) FreeList() []int {
	return i.heap.FreeList()
}

// HeapAllocated returns the allocated heap slots keyed by index
func (i *Interpreter) HeapAllocated() map[int]value.Value {
	return i.heap.Allocated()
}

// PendingParams returns the values staged by PARAM/REF_PARAM
func (i *Interpreter) PendingParams() []value.Value {
	return slices.Clone(i.params)
}

// Lookup reads a variable the way an instruction operand would.
func (i *Interpreter) Lookup(name string) (value.Value, error) {
	v, f := i.lookup(name)
	if f != nil {
		return value.Value{}, f
	}
	return v, nil
}

var (
	ErrNotLoaded        = errors.New("no program loaded")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)
