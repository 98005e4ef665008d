package runner

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"tacvm/pkg/color"
	"tacvm/pkg/interpreter"
	"tacvm/pkg/value"
)

func writeVars(w io.Writer, indent string, vars map[string]value.Value) {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		fmt.Fprintf(w, "%s%s = %s\n", indent, color.Name(k), vars[k].Repr())
	}
}

// WriteDump prints globals, the current frame, the allocated heap slots and
// the call stack, top first.
func WriteDump(w io.Writer, it *interpreter.Interpreter) {
	fmt.Fprintln(w, color.Header("--- Global Memory ---"))
	globals := it.Globals()
	if len(globals) == 0 {
		fmt.Fprintln(w, color.Muted("(empty)"))
	}
	writeVars(w, "", globals)

	frames := it.CallStack()
	if len(frames) > 0 {
		top := frames[len(frames)-1]
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.Header("--- Current Stack Frame (Locals) ---"))
		if len(top.Params) == 0 && len(top.Locals) == 0 {
			fmt.Fprintln(w, color.Muted("(empty)"))
		}
		if len(top.Params) > 0 {
			fmt.Fprintln(w, "Parameters:")
			writeVars(w, "  ", top.Params)
		}
		if len(top.Locals) > 0 {
			fmt.Fprintln(w, "Local Variables:")
			writeVars(w, "  ", top.Locals)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.Header("--- Heap Memory (Address: Value) ---"))
	heap := it.HeapAllocated()
	if len(heap) == 0 {
		fmt.Fprintln(w, color.Muted("(empty / all free)"))
	}
	for _, addr := range slices.Sorted(maps.Keys(heap)) {
		fmt.Fprintf(w, "%s: %s\n", color.Index(fmt.Sprintf("[%04d]", addr)), heap[addr].Repr())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.Header("--- Call Stack (Top -> Bottom) ---"))
	if len(frames) == 0 {
		fmt.Fprintln(w, color.Muted("(empty)"))
	}
	for n := len(frames) - 1; n >= 0; n-- {
		fmt.Fprintf(w, "[%d] %s (ret_PC: %d)\n", n, color.Label(frames[n].FuncName), frames[n].ReturnAddress)
	}
}

// WriteListing prints the loaded program with its labels.
func WriteListing(w io.Writer, it *interpreter.Interpreter) {
	p := it.Program()
	if p == nil || p.Len() == 0 {
		fmt.Fprintln(w, color.Muted("No instructions loaded."))
		return
	}

	labels := make(map[int][]string)
	for name, pc := range p.Labels() {
		labels[pc] = append(labels[pc], name)
	}

	instructions := p.Instructions()
	for pc := 0; pc <= len(instructions); pc++ {
		names := labels[pc]
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintln(w, color.Label(name+":"))
		}
		if pc == len(instructions) {
			break
		}

		in := instructions[pc]
		ops := make([]string, len(in.Operands))
		for n, op := range in.Operands {
			ops[n] = op.String()
		}
		fmt.Fprintf(w, "%s  %s %s %s\n",
			color.Index(fmt.Sprintf("%4d", pc)),
			color.Muted(fmt.Sprintf("L%-4d", in.Line)),
			color.Opcode(string(in.Op)),
			strings.Join(ops, ", "))
	}
}

// ExportFile writes the engine state to path as JSON.
func ExportFile(path string, it *interpreter.Interpreter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	if err := it.Export().Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("export state to %s: %w", path, err)
	}
	return f.Close()
}

// ImportFile loads an engine state written by ExportFile.
func ImportFile(path string, it *interpreter.Interpreter) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import state: %w", err)
	}
	defer f.Close()

	st, err := interpreter.DecodeState(f)
	if err != nil {
		return fmt.Errorf("import state from %s: %w", path, err)
	}
	if err := it.Import(st); err != nil {
		return fmt.Errorf("import state from %s: %w", path, err)
	}
	return nil
}
