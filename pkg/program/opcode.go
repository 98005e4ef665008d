package program

type Opcode string

// List of 3AC operations
const (
	OpAssign      Opcode = "ASSIGN"
	OpConstAssign Opcode = "CONST_ASSIGN"

	OpAdd Opcode = "ADD"
	OpSub Opcode = "SUB"
	OpMul Opcode = "MUL"
	OpDiv Opcode = "DIV"
	OpMod Opcode = "MOD"
	OpEq  Opcode = "EQ"
	OpNe  Opcode = "NE"
	OpLt  Opcode = "LT"
	OpLe  Opcode = "LE"
	OpGt  Opcode = "GT"
	OpGe  Opcode = "GE"
	OpOr  Opcode = "OR"
	OpAnd Opcode = "AND"

	OpConcat  Opcode = "CONCAT"
	OpStrlen  Opcode = "STRLEN"
	OpGetchar Opcode = "GETCHAR"

	OpJump  Opcode = "JUMP"
	OpJumpT Opcode = "JUMPT"
	OpJumpF Opcode = "JUMPF"

	OpParam    Opcode = "PARAM"
	OpRefParam Opcode = "REF_PARAM"
	OpCall     Opcode = "CALL"
	OpReturn   Opcode = "RETURN"

	OpAllocHeap  Opcode = "ALLOC_HEAP"
	OpFreeHeap   Opcode = "FREE_HEAP"
	OpAddrOf     Opcode = "ADDR_OF"
	OpDerefLoad  Opcode = "DEREF_LOAD"
	OpDerefStore Opcode = "DEREF_STORE"
	OpIndexLoad  Opcode = "INDEX_LOAD"
	OpIndexStore Opcode = "INDEX_STORE"

	OpPrint  Opcode = "PRINT"
	OpHalt   Opcode = "HALT"
	OpUminus Opcode = "UMINUS"
)

// Category groups opcodes by the handler that executes them.
type Category int

const (
	CatUnknown Category = iota
	CatAssignment
	CatArithmetic
	CatString
	CatControl
	CatFunction
	CatHeap
	CatMisc
)

func (c Category) String() string {
	switch c {
	case CatAssignment:
		return "assignment"
	case CatArithmetic:
		return "arithmetic"
	case CatString:
		return "string"
	case CatControl:
		return "control"
	case CatFunction:
		return "function"
	case CatHeap:
		return "heap"
	case CatMisc:
		return "misc"
	default:
		return "unknown"
	}
}

// Category maps an opcode to its handler category. Opcodes outside the
// catalogue report CatUnknown.
func (op Opcode) Category() Category {
	switch op {
	case OpAssign, OpConstAssign:
		return CatAssignment
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpOr, OpAnd:
		return CatArithmetic
	case OpConcat, OpStrlen, OpGetchar:
		return CatString
	case OpJump, OpJumpT, OpJumpF:
		return CatControl
	case OpParam, OpRefParam, OpCall, OpReturn:
		return CatFunction
	case OpAllocHeap, OpFreeHeap, OpAddrOf, OpDerefLoad, OpDerefStore, OpIndexLoad, OpIndexStore:
		return CatHeap
	case OpPrint, OpHalt, OpUminus:
		return CatMisc
	default:
		return CatUnknown
	}
}

// IsJump reports whether the first operand of op is a label resolved at load time.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpT || op == OpJumpF
}
