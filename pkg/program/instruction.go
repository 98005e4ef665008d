package program

import (
	"fmt"
	"strings"

	"tacvm/pkg/value"
)

// Operand is either a literal value or a reference to a variable by name.
// Jump operands are rewritten at load time: Name is cleared, Value holds the
// target index and Label keeps the label it came from.
type Operand struct {
	Name  string
	Value value.Value
	Label string
	Raw   string // source text
}

// Ref builds a variable reference operand.
func Ref(name string) Operand {
	return Operand{Name: name, Raw: name}
}

// Lit builds a literal operand.
func Lit(v value.Value) Operand {
	return Operand{Value: v, Raw: v.Repr()}
}

// IsRef reports whether the operand names a variable.
func (o Operand) IsRef() bool {
	return o.Name != ""
}

func (o Operand) String() string {
	switch {
	case o.Label != "":
		return fmt.Sprintf("%s(@%s)", o.Label, o.Value)
	case o.IsRef():
		return o.Name
	default:
		return o.Value.Repr()
	}
}

type Instruction struct {
	Op       Opcode
	Operands []Operand
	Line     int // 1-based source line
}

// String returns a string representation of the instruction
func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return string(i.Op)
	}

	ops := make([]string, len(i.Operands))
	for n, o := range i.Operands {
		ops[n] = o.String()
	}
	return string(i.Op) + " " + strings.Join(ops, ", ")
}

// Operand returns the n-th operand, or false if the instruction has fewer.
func (i Instruction) Operand(n int) (Operand, bool) {
	if n < 0 || n >= len(i.Operands) {
		return Operand{}, false
	}
	return i.Operands[n], true
}
