package interpreter

import (
	"maps"
	"strconv"

	"tacvm/pkg/value"
)

// Frame represents a function call frame.
type Frame struct {
	FuncName      string                 // label the frame was called through
	ReturnAddress int                    // pc to continue at after RETURN
	ReturnVar     string                 // caller variable receiving the result, "" for none
	Locals        map[string]value.Value // local variables, ARGn included
	Params        map[string]value.Value // ARGn as passed: a value, or a pointer for REF_PARAM
}

func newFrame(funcName string, returnAddress int, returnVar string) *Frame {
	return &Frame{
		FuncName:      funcName,
		ReturnAddress: returnAddress,
		ReturnVar:     returnVar,
		Locals:        make(map[string]value.Value),
		Params:        make(map[string]value.Value),
	}
}

// bind stores positional arguments as ARG0..ARGn-1 in both maps.
func (f *Frame) bind(args []value.Value) {
	for n, arg := range args {
		name := ArgName(n)
		f.Params[name] = arg
		f.Locals[name] = arg
	}
}

func (f *Frame) clone() Frame {
	c := *f
	c.Locals = maps.Clone(f.Locals)
	c.Params = maps.Clone(f.Params)
	return c
}

// ArgName returns the callee-side name of the n-th positional parameter.
func ArgName(n int) string {
	return "ARG" + strconv.Itoa(n)
}
