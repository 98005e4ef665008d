package program

import (
	"fmt"
	"sort"
	"strings"
)

// Program is an immutable instruction sequence plus its label table.
type Program struct {
	instructions []Instruction
	labels       map[string]int
}

// New assembles a program directly. Used by tests and tools that build
// instructions without source text; no label resolution is performed.
func New(instructions []Instruction, labels map[string]int) *Program {
	p := &Program{
		instructions: append([]Instruction(nil), instructions...),
		labels:       make(map[string]int, len(labels)),
	}
	for k, v := range labels {
		p.labels[k] = v
	}
	return p
}

func (p *Program) Len() int {
	return len(p.instructions)
}

// At returns the instruction at index pc.
func (p *Program) At(pc int) (Instruction, bool) {
	if pc < 0 || pc >= len(p.instructions) {
		return Instruction{}, false
	}
	return p.instructions[pc], true
}

// Instructions returns a copy of the instruction sequence.
func (p *Program) Instructions() []Instruction {
	return append([]Instruction(nil), p.instructions...)
}

// Label returns the instruction index bound to name.
func (p *Program) Label(name string) (int, bool) {
	idx, ok := p.labels[name]
	return idx, ok
}

// Labels returns a copy of the label table.
func (p *Program) Labels() map[string]int {
	out := make(map[string]int, len(p.labels))
	for k, v := range p.labels {
		out[k] = v
	}
	return out
}

// String renders a listing with labels above the instruction they bind to.
func (p *Program) String() string {
	byIndex := make(map[int][]string)
	for name, idx := range p.labels {
		byIndex[idx] = append(byIndex[idx], name)
	}

	var b strings.Builder
	for idx := 0; idx <= len(p.instructions); idx++ {
		names := byIndex[idx]
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		if idx < len(p.instructions) {
			in := p.instructions[idx]
			fmt.Fprintf(&b, "%4d  L%-4d %s\n", idx, in.Line, in)
		}
	}
	return b.String()
}
