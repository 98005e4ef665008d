package interpreter

import (
	"fmt"
	"unicode/utf8"

	"tacvm/pkg/program"
	"tacvm/pkg/value"
)

// exec dispatches one instruction to its category handler. Every handler
// advances the pc by one unless it transfers control itself.
func (i *Interpreter) exec(in program.Instruction) *Fault {
	switch in.Op.Category() {
	case program.CatAssignment:
		return i.execAssignment(in)
	case program.CatArithmetic:
		return i.execArithmetic(in)
	case program.CatString:
		return i.execString(in)
	case program.CatControl:
		return i.execJump(in)
	case program.CatFunction:
		return i.execFunction(in)
	case program.CatHeap:
		return i.execHeap(in)
	case program.CatMisc:
		return i.execMisc(in)
	default:
		return faultf(FaultUnknownOpcode, "Unknown or unsupported opcode: %s", in.Op)
	}
}

// operands checks the operand count of in
func operands(in program.Instruction, lo, hi int) ([]program.Operand, *Fault) {
	n := len(in.Operands)
	if n >= lo && n <= hi {
		return in.Operands, nil
	}

	want := fmt.Sprintf("%d", lo)
	if hi != lo {
		want = fmt.Sprintf("%d to %d", lo, hi)
	}
	return nil, faultf(FaultMalformedInstruction, "%s expects %s operands, got %d", in.Op, want, n)
}

// name returns the variable an operand refers to
func name(in program.Instruction, op program.Operand) (string, *Fault) {
	if !op.IsRef() {
		return "", faultf(FaultMalformedInstruction, "%s expects a variable name, got %s", in.Op, op.Raw)
	}
	return op.Name, nil
}

func (i *Interpreter) execAssignment(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}

	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}

	switch in.Op {
	case program.OpAssign, program.OpConstAssign:
		v, f := i.read(ops[1])
		if f != nil {
			return f
		}
		i.write(dst, v)
	}

	i.pc++
	return nil
}

func (i *Interpreter) execArithmetic(in program.Instruction) *Fault {
	ops, f := operands(in, 3, 3)
	if f != nil {
		return f
	}

	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}

	// both operands are always evaluated
	v1, f := i.read(ops[1])
	if f != nil {
		return f
	}
	v2, f := i.read(ops[2])
	if f != nil {
		return f
	}

	res, f := evalBinary(in.Op, v1, v2)
	if f != nil {
		return f
	}

	i.write(dst, res)
	i.pc++
	return nil
}

func (i *Interpreter) execString(in program.Instruction) *Fault {
	switch in.Op {
	case program.OpConcat:
		ops, f := operands(in, 3, 3)
		if f != nil {
			return f
		}
		dst, f := name(in, ops[0])
		if f != nil {
			return f
		}
		v1, f := i.read(ops[1])
		if f != nil {
			return f
		}
		v2, f := i.read(ops[2])
		if f != nil {
			return f
		}
		i.write(dst, value.NewString(v1.String()+v2.String()))

	case program.OpStrlen:
		ops, f := operands(in, 2, 2)
		if f != nil {
			return f
		}
		dst, f := name(in, ops[0])
		if f != nil {
			return f
		}
		s, f := i.read(ops[1])
		if f != nil {
			return f
		}
		if s.Kind != value.KindString {
			return faultf(FaultTypeMismatch, "STRLEN expects a string, but got %s from '%s'", s.Kind, ops[1].Raw)
		}
		i.write(dst, value.NewInt(int64(utf8.RuneCountInString(s.Str))))

	case program.OpGetchar:
		ops, f := operands(in, 3, 3)
		if f != nil {
			return f
		}
		dst, f := name(in, ops[0])
		if f != nil {
			return f
		}
		s, f := i.read(ops[1])
		if f != nil {
			return f
		}
		idx, f := i.read(ops[2])
		if f != nil {
			return f
		}
		if s.Kind != value.KindString {
			return faultf(FaultTypeMismatch, "GETCHAR expects a string, but got %s from '%s'", s.Kind, ops[1].Raw)
		}
		if idx.Kind != value.KindInt {
			return faultf(FaultTypeMismatch, "GETCHAR expects an integer index, but got %s from '%s'", idx.Kind, ops[2].Raw)
		}

		runes := []rune(s.Str)
		n := idx.I64
		if n < 0 {
			n += int64(len(runes))
		}
		if n < 0 || n >= int64(len(runes)) {
			return faultf(FaultIndexOutOfBounds, "GETCHAR index %d out of range for string of length %d", idx.I64, len(runes))
		}
		i.write(dst, value.NewString(string(runes[n])))
	}

	i.pc++
	return nil
}

func jumpTarget(in program.Instruction, op program.Operand) (int, *Fault) {
	if op.IsRef() || op.Value.Kind != value.KindInt {
		return 0, faultf(FaultMalformedInstruction, "%s target %s is not a resolved label", in.Op, op.Raw)
	}
	return int(op.Value.I64), nil
}

func (i *Interpreter) execJump(in program.Instruction) *Fault {
	if in.Op == program.OpJump {
		ops, f := operands(in, 1, 1)
		if f != nil {
			return f
		}
		target, f := jumpTarget(in, ops[0])
		if f != nil {
			return f
		}
		i.pc = target
		return nil
	}

	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}
	target, f := jumpTarget(in, ops[0])
	if f != nil {
		return f
	}
	cond, f := i.read(ops[1])
	if f != nil {
		return f
	}

	if cond.Truthy() == (in.Op == program.OpJumpT) {
		i.pc = target
	} else {
		i.pc++
	}
	return nil
}

func (i *Interpreter) execFunction(in program.Instruction) *Fault {
	switch in.Op {
	case program.OpParam:
		ops, f := operands(in, 1, 1)
		if f != nil {
			return f
		}
		v, f := i.read(ops[0])
		if f != nil {
			return f
		}
		i.params = append(i.params, v)
		i.pc++

	case program.OpRefParam:
		ops, f := operands(in, 1, 1)
		if f != nil {
			return f
		}
		src, f := name(in, ops[0])
		if f != nil {
			return f
		}
		i.params = append(i.params, value.NewPointer(i.addressOf(src)))
		i.pc++

	case program.OpCall:
		return i.call(in)

	case program.OpReturn:
		return i.ret(in)
	}

	return nil
}

func (i *Interpreter) call(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 3)
	if f != nil {
		return f
	}

	label, f := name(in, ops[0])
	if f != nil {
		return f
	}

	expected, f := i.read(ops[1])
	if f != nil {
		return f
	}
	if expected.Kind != value.KindInt {
		return faultf(FaultTypeMismatch, "CALL parameter count must be an integer, got %s", expected.Kind)
	}

	var retVar string
	if len(ops) == 3 {
		if retVar, f = name(in, ops[2]); f != nil {
			return f
		}
	}

	if int64(len(i.params)) != expected.I64 {
		return faultf(FaultParamCountMismatch, "Function '%s' expected %d parameters, but received %d", label, expected.I64, len(i.params))
	}

	target, ok := i.prog.Label(label)
	if !ok {
		return faultf(FaultUndefinedLabel, "Undefined function label '%s'", label)
	}

	frame := newFrame(label, i.pc+1, retVar)
	frame.bind(i.params)
	i.stack.Push(frame)
	i.params = nil

	i.logger.Debug("Call", "func", label, "args", len(frame.Params), "depth", i.stack.Size())
	i.pc = target
	return nil
}

// ret evaluates the result in the callee's scope, pops the frame, then
// writes the result in the caller's scope.
func (i *Interpreter) ret(in program.Instruction) *Fault {
	ops, f := operands(in, 0, 1)
	if f != nil {
		return f
	}

	if i.stack.Empty() {
		return faultf(FaultReturnOutsideCall, "RETURN instruction outside of a function call")
	}

	result := value.Absent()
	if len(ops) == 1 {
		if result, f = i.read(ops[0]); f != nil {
			return f
		}
	}

	frame, _ := i.stack.Pop()
	i.pc = frame.ReturnAddress
	i.logger.Debug("Return", "func", frame.FuncName, "to", frame.ReturnAddress, "depth", i.stack.Size())

	if frame.ReturnVar != "" {
		i.write(frame.ReturnVar, result)
	}
	return nil
}

func (i *Interpreter) execHeap(in program.Instruction) *Fault {
	var f *Fault
	switch in.Op {
	case program.OpAllocHeap:
		f = i.allocHeap(in)
	case program.OpFreeHeap:
		f = i.freeHeap(in)
	case program.OpAddrOf:
		f = i.addrOf(in)
	case program.OpDerefLoad:
		f = i.derefLoad(in)
	case program.OpDerefStore:
		f = i.derefStore(in)
	case program.OpIndexLoad:
		f = i.indexLoad(in)
	case program.OpIndexStore:
		f = i.indexStore(in)
	}
	if f != nil {
		return f
	}

	i.pc++
	return nil
}

func (i *Interpreter) allocHeap(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}
	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}
	size, f := i.read(ops[1])
	if f != nil {
		return f
	}
	if size.Kind != value.KindInt {
		return faultf(FaultInvalidSize, "ALLOC_HEAP size must be a positive integer, got '%s'", size.Repr())
	}

	before := i.heap.Len()
	base, f := i.heap.Allocate(int(size.I64))
	if f != nil {
		return f
	}
	if after := i.heap.Len(); after != before {
		i.logger.Debug("Heap grown", "from", before, "to", after)
	}

	i.write(dst, value.NewPointer(value.HeapPointer(base)))
	return nil
}

func (i *Interpreter) freeHeap(in program.Instruction) *Fault {
	ops, f := operands(in, 1, 1)
	if f != nil {
		return f
	}
	ptr, f := i.read(ops[0])
	if f != nil {
		return f
	}

	addr, ok := ptr.HeapAddress()
	if !ok || !i.heap.Free(addr) {
		i.logger.Warn("Invalid heap free", "address", ptr.Repr(), "line", in.Line)
		i.console(fmt.Sprintf("Warning: FREE_HEAP called with invalid address: %s", ptr.Repr()))
	}
	return nil
}

func (i *Interpreter) addrOf(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}
	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}
	src, f := name(in, ops[1])
	if f != nil {
		return f
	}

	i.write(dst, value.NewPointer(i.addressOf(src)))
	return nil
}

func (i *Interpreter) derefLoad(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}
	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}
	ptr, f := i.read(ops[1])
	if f != nil {
		return f
	}
	v, f := i.deref(ptr)
	if f != nil {
		return f
	}

	i.write(dst, v)
	return nil
}

func (i *Interpreter) derefStore(in program.Instruction) *Fault {
	ops, f := operands(in, 2, 2)
	if f != nil {
		return f
	}
	ptr, f := i.read(ops[0])
	if f != nil {
		return f
	}
	v, f := i.read(ops[1])
	if f != nil {
		return f
	}

	return i.storeThrough(ptr, v)
}

// effectiveAddress computes base + index for INDEX_LOAD and INDEX_STORE
func (i *Interpreter) effectiveAddress(in program.Instruction, baseOp, indexOp program.Operand) (int, *Fault) {
	base, f := i.read(baseOp)
	if f != nil {
		return 0, f
	}
	index, f := i.read(indexOp)
	if f != nil {
		return 0, f
	}

	addr, ok := base.HeapAddress()
	if !ok || !i.heap.InRange(addr) {
		return 0, faultf(FaultInvalidPointer, "%s error: Invalid base address '%s' in '%s'", in.Op, base.Repr(), baseOp.Raw)
	}
	if index.Kind != value.KindInt {
		return 0, faultf(FaultTypeMismatch, "%s error: Index must be an integer, got '%s'", in.Op, index.Repr())
	}

	effective := int64(addr) + index.I64
	if effective < 0 || effective >= int64(i.heap.Len()) {
		return 0, faultf(FaultIndexOutOfBounds, "%s error: Address %d is out of bounds", in.Op, effective)
	}
	return int(effective), nil
}

func (i *Interpreter) indexLoad(in program.Instruction) *Fault {
	ops, f := operands(in, 3, 3)
	if f != nil {
		return f
	}
	dst, f := name(in, ops[0])
	if f != nil {
		return f
	}
	addr, f := i.effectiveAddress(in, ops[1], ops[2])
	if f != nil {
		return f
	}

	i.write(dst, i.heap.Load(addr))
	return nil
}

func (i *Interpreter) indexStore(in program.Instruction) *Fault {
	ops, f := operands(in, 3, 3)
	if f != nil {
		return f
	}
	addr, f := i.effectiveAddress(in, ops[0], ops[1])
	if f != nil {
		return f
	}
	v, f := i.read(ops[2])
	if f != nil {
		return f
	}

	i.heap.Store(addr, v)
	return nil
}

func (i *Interpreter) execMisc(in program.Instruction) *Fault {
	switch in.Op {
	case program.OpPrint:
		ops, f := operands(in, 1, 1)
		if f != nil {
			return f
		}
		v, f := i.read(ops[0])
		if f != nil {
			return f
		}
		i.console("Output: " + v.String())

	case program.OpHalt:
		i.halted = true
		i.running = false
		i.console("--- Program Halted ---")

	case program.OpUminus:
		ops, f := operands(in, 2, 2)
		if f != nil {
			return f
		}
		dst, f := name(in, ops[0])
		if f != nil {
			return f
		}
		v, f := i.read(ops[1])
		if f != nil {
			return f
		}
		neg, f := negate(v)
		if f != nil {
			return f
		}
		i.write(dst, neg)
	}

	i.pc++
	return nil
}
