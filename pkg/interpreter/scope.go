package interpreter

import (
	"tacvm/pkg/program"
	"tacvm/pkg/value"
)

// read resolves an operand. Literals are returned unchanged.
func (i *Interpreter) read(op program.Operand) (value.Value, *Fault) {
	if !op.IsRef() {
		return op.Value, nil
	}
	return i.lookup(op.Name)
}

// lookup searches the top frame's locals, then its parameters (reading
// through reference parameters), then the global scope. A name found nowhere
// is absent, not an error.
func (i *Interpreter) lookup(name string) (value.Value, *Fault) {
	if f, ok := i.stack.Peek(); ok {
		if v, ok := f.Locals[name]; ok {
			return v, nil
		}
		if v, ok := f.Params[name]; ok {
			if v.Kind == value.KindPointer {
				return i.deref(v)
			}
			return v, nil
		}
	}

	if v, ok := i.globals[name]; ok {
		return v, nil
	}

	return value.Absent(), nil
}

// write stores into the top frame's locals, or the global scope when no call
// is active. A local write may shadow a parameter of the same name.
func (i *Interpreter) write(name string, v value.Value) {
	if f, ok := i.stack.Peek(); ok {
		f.Locals[name] = v
		return
	}
	i.globals[name] = v
}

// addressOf describes where name lives now. Unknown names are treated as
// implicitly declared globals.
func (i *Interpreter) addressOf(name string) value.Pointer {
	if f, ok := i.stack.Peek(); ok {
		_, local := f.Locals[name]
		_, param := f.Params[name]
		if local || param {
			return value.LocalPointer(name)
		}
	}
	return value.GlobalPointer(name)
}

// deref reads through a pointer. Local pointers bind to whichever frame is
// on top when they are dereferenced.
func (i *Interpreter) deref(p value.Value) (value.Value, *Fault) {
	if p.Kind == value.KindInt {
		p = value.NewPointer(value.HeapPointer(int(p.I64)))
	}
	if p.Kind != value.KindPointer {
		return value.Value{}, faultf(FaultInvalidPointer, "Invalid pointer format: %s", p.Repr())
	}

	switch p.Ptr.Kind {
	case value.PtrHeap:
		if !i.heap.InRange(p.Ptr.Index) {
			return value.Value{}, faultf(FaultInvalidPointer, "Invalid heap address in pointer: %s", p.Ptr)
		}
		return i.heap.Load(p.Ptr.Index), nil

	case value.PtrGlobal:
		return i.globals[p.Ptr.Name], nil

	case value.PtrLocal:
		f, ok := i.stack.Peek()
		if !ok {
			return value.Value{}, faultf(FaultInvalidPointer, "Attempted to access local pointer %s with no active stack frame", p.Ptr)
		}
		return f.Locals[p.Ptr.Name], nil

	default:
		return value.Value{}, faultf(FaultInvalidPointer, "Unknown pointer type in %s", p.Ptr)
	}
}

// storeThrough writes v at the location p names.
func (i *Interpreter) storeThrough(p value.Value, v value.Value) *Fault {
	if p.Kind == value.KindInt {
		p = value.NewPointer(value.HeapPointer(int(p.I64)))
	}
	if p.Kind != value.KindPointer {
		return faultf(FaultInvalidPointer, "Invalid pointer format for storing: %s", p.Repr())
	}

	switch p.Ptr.Kind {
	case value.PtrHeap:
		if !i.heap.InRange(p.Ptr.Index) {
			return faultf(FaultInvalidPointer, "Invalid heap address in pointer: %s", p.Ptr)
		}
		i.heap.Store(p.Ptr.Index, v)

	case value.PtrGlobal:
		i.globals[p.Ptr.Name] = v

	case value.PtrLocal:
		f, ok := i.stack.Peek()
		if !ok {
			return faultf(FaultInvalidPointer, "Attempted to set local pointer %s with no active stack frame", p.Ptr)
		}
		f.Locals[p.Ptr.Name] = v

	default:
		return faultf(FaultInvalidPointer, "Unknown pointer type in %s", p.Ptr)
	}

	return nil
}
