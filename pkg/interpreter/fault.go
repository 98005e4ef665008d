package interpreter

import (
	"fmt"

	"tacvm/pkg/program"
)

type FaultKind int

const (
	FaultDivisionByZero FaultKind = iota + 1
	FaultModuloByZero
	FaultTypeMismatch
	FaultInvalidPointer
	FaultIndexOutOfBounds
	FaultInvalidSize
	FaultParamCountMismatch
	FaultUnknownOpcode
	FaultReturnOutsideCall
	FaultMalformedInstruction
	FaultUndefinedLabel
)

var faultNames = map[FaultKind]string{
	FaultDivisionByZero:       "DivisionByZero",
	FaultModuloByZero:         "ModuloByZero",
	FaultTypeMismatch:         "TypeMismatch",
	FaultInvalidPointer:       "InvalidPointer",
	FaultIndexOutOfBounds:     "IndexOutOfBounds",
	FaultInvalidSize:          "InvalidSize",
	FaultParamCountMismatch:   "ParamCountMismatch",
	FaultUnknownOpcode:        "UnknownOpcode",
	FaultReturnOutsideCall:    "ReturnOutsideCall",
	FaultMalformedInstruction: "MalformedInstruction",
	FaultUndefinedLabel:       "UndefinedLabel",
}

func (k FaultKind) String() string {
	if name, ok := faultNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FaultKind(%d)", k)
}

// Fault is a runtime error raised while executing one instruction. The
// location fields are filled in by Step.
type Fault struct {
	Kind FaultKind
	Msg  string
	PC   int
	Line int
	Op   program.Opcode
}

func (f *Fault) Error() string {
	return fmt.Sprintf("Runtime Error at 3AC line %d (PC=%d): %s", f.Line, f.PC, f.Msg)
}

func faultf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
