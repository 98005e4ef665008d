package interpreter

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"

	"tacvm/pkg/stack"
	"tacvm/pkg/value"
)

// State is the persisted form of the engine. The heap map is sparse: free
// slots are omitted and reconstructed on import.
type State struct {
	PC           int                    `json:"pc"`
	GlobalMemory map[string]value.Value `json:"global_memory"`
	CallStack    []FrameState           `json:"call_stack"`
	Heap         map[int]value.Value    `json:"heap"`
	HeapSize     int                    `json:"heap_size,omitempty"`
}

type FrameState struct {
	FuncName      string                 `json:"func_name"`
	ReturnAddress int                    `json:"return_address"`
	ReturnVarName string                 `json:"return_var_name"`
	Locals        map[string]value.Value `json:"locals"`
	Params        map[string]value.Value `json:"params"`
}

// Export captures the current runtime state. Pending parameters and the
// running flags are not part of it.
func (i *Interpreter) Export() State {
	st := State{
		PC:           i.pc,
		GlobalMemory: maps.Clone(i.globals),
		CallStack:    make([]FrameState, 0, i.stack.Size()),
		Heap:         i.heap.Allocated(),
		HeapSize:     i.heap.Len(),
	}

	for _, f := range i.stack.Array() {
		st.CallStack = append(st.CallStack, FrameState{
			FuncName:      f.FuncName,
			ReturnAddress: f.ReturnAddress,
			ReturnVarName: f.ReturnVar,
			Locals:        maps.Clone(f.Locals),
			Params:        maps.Clone(f.Params),
		})
	}

	return st
}

// Import replaces the runtime state of the loaded program with st. The heap
// is sized to hold every imported index and its free list is the ascending
// complement of st.Heap.
func (i *Interpreter) Import(st State) error {
	if i.prog == nil {
		return ErrNotLoaded
	}

	if st.HeapSize < 0 || st.HeapSize > MaxHeapSize {
		return fmt.Errorf("heap size %d in state is outside 0..%d", st.HeapSize, MaxHeapSize)
	}

	size := max(st.HeapSize, i.heapSize)
	for idx := range st.Heap {
		if idx < 0 || idx >= MaxHeapSize {
			return fmt.Errorf("invalid heap index %d in state", idx)
		}
		size = max(size, idx+1)
	}

	frames := stack.New[*Frame]()
	for n, fs := range st.CallStack {
		if fs.FuncName == "" {
			return fmt.Errorf("call stack frame %d has no function name", n)
		}
		f := newFrame(fs.FuncName, fs.ReturnAddress, fs.ReturnVarName)
		maps.Copy(f.Locals, fs.Locals)
		maps.Copy(f.Params, fs.Params)
		frames.Push(f)
	}

	i.pc = st.PC
	i.globals = make(map[string]value.Value, len(st.GlobalMemory))
	maps.Copy(i.globals, st.GlobalMemory)
	i.stack = frames
	i.heap = restoreHeap(size, st.Heap)
	i.params = nil
	i.halted = false
	i.fault = nil
	i.running = i.pc >= 0 && i.pc < i.prog.Len()

	i.logger.Debug("State imported",
		"pc", i.pc,
		"globals", len(i.globals),
		"frames", frames.Size(),
		"heap", size,
		"allocated", len(st.Heap),
	)
	return nil
}

// Encode writes st as indented JSON.
func (st State) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(st)
}

// DecodeState reads a State written by Encode.
func DecodeState(r io.Reader) (State, error) {
	var st State
	dec := json.NewDecoder(r)
	if err := dec.Decode(&st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}

	if st.GlobalMemory == nil {
		st.GlobalMemory = make(map[string]value.Value)
	}
	if st.Heap == nil {
		st.Heap = make(map[int]value.Value)
	}
	return st, nil
}
