package value

import (
	"fmt"
	"strconv"
)

type PointerKind uint8

const (
	PtrHeap PointerKind = iota
	PtrGlobal
	PtrLocal
)

func (k PointerKind) String() string {
	switch k {
	case PtrHeap:
		return "heap"
	case PtrGlobal:
		return "global"
	case PtrLocal:
		return "local"
	default:
		return fmt.Sprintf("PointerKind(%d)", k)
	}
}

// ParsePointerKind is the inverse of PointerKind.String.
func ParsePointerKind(s string) (PointerKind, error) {
	switch s {
	case "heap":
		return PtrHeap, nil
	case "global":
		return PtrGlobal, nil
	case "local":
		return PtrLocal, nil
	default:
		return 0, fmt.Errorf("unknown pointer kind %q", s)
	}
}

// Pointer identifies a storage location. Heap pointers use Index, global and
// local pointers use Name. A local pointer names a variable in whatever frame
// is on top of the call stack when it is dereferenced.
type Pointer struct {
	Kind  PointerKind
	Index int
	Name  string
}

func HeapPointer(index int) Pointer {
	return Pointer{Kind: PtrHeap, Index: index}
}

func GlobalPointer(name string) Pointer {
	return Pointer{Kind: PtrGlobal, Name: name}
}

func LocalPointer(name string) Pointer {
	return Pointer{Kind: PtrLocal, Name: name}
}

func (p Pointer) String() string {
	if p.Kind == PtrHeap {
		return "&heap[" + strconv.Itoa(p.Index) + "]"
	}
	return "&" + p.Kind.String() + "." + p.Name
}
