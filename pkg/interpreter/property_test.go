package interpreter_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tacvm/pkg/interpreter"
	"tacvm/pkg/value"
)

func quiet() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithWriter(io.Discard),
		interpreter.WithLogger(log.New(io.Discard)),
	}
}

// heapProgram allocates sizes[n] slots into p<n> and frees every pointer
// whose position is marked in frees.
func heapProgram(sizes []int, frees []bool) string {
	var b strings.Builder
	for n, size := range sizes {
		fmt.Fprintf(&b, "ALLOC_HEAP p%d, %d\n", n, size)
		fmt.Fprintf(&b, "DEREF_STORE p%d, %d\n", n, n)
	}
	for n := range sizes {
		if n < len(frees) && frees[n] {
			fmt.Fprintf(&b, "FREE_HEAP p%d\n", n)
		}
	}
	return b.String()
}

func TestPropertyHeap(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every index is free or allocated, never both", prop.ForAll(
		func(sizes []int, frees []bool) bool {
			it := interpreter.NewInterpreter(append(quiet(), interpreter.WithHeapSize(8))...)
			if err := it.Load(heapProgram(sizes, frees)); err != nil {
				return false
			}
			if err := it.Run(context.Background()); err != nil {
				return false
			}

			free := it.FreeList()
			allocated := it.HeapAllocated()
			seen := make(map[int]bool, len(free))
			for _, idx := range free {
				if seen[idx] {
					return false
				}
				seen[idx] = true
				if _, ok := allocated[idx]; ok {
					return false
				}
			}
			return len(free)+len(allocated) == len(it.Heap())
		},
		gen.SliceOfN(12, gen.IntRange(1, 6)),
		gen.SliceOfN(12, gen.Bool()),
	))

	properties.Property("a freed slot is reused only after the slots queued before it", prop.ForAll(
		func(pre int) bool {
			var b strings.Builder
			fmt.Fprintf(&b, "ALLOC_HEAP a, 1\nFREE_HEAP a\n")
			for n := 0; n < pre; n++ {
				fmt.Fprintf(&b, "ALLOC_HEAP x%d, 1\n", n)
			}
			b.WriteString("ALLOC_HEAP last, 1\n")

			it := interpreter.NewInterpreter(append(quiet(), interpreter.WithHeapSize(4))...)
			if err := it.Load(b.String()); err != nil {
				return false
			}
			_ = it.Run(context.Background())

			// slots 1..3 were queued before the freed slot 0, then the heap grows
			want := pre + 1
			switch {
			case pre == 3:
				want = 0
			case pre > 3:
				want = pre
			}
			return it.Globals()["last"].Equal(value.NewPointer(value.HeapPointer(want)))
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

func TestPropertyStateRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	src := `ASSIGN total, 0
ALLOC_HEAP buf, 4
loop:
LT c, total, limit
JUMPF done, c
PARAM total
CALL bump, 1, total
INDEX_STORE buf, 0, total
JUMP loop
done:
FREE_HEAP buf
HALT
bump:
ASSIGN scratch, "tmp"
ADD r, ARG0, 1
RETURN r`

	properties.Property("export then import preserves the state", prop.ForAll(
		func(limit, steps int) bool {
			it := interpreter.NewInterpreter(quiet()...)
			if err := it.Load("ASSIGN limit, " + fmt.Sprint(limit) + "\n" + src); err != nil {
				return false
			}
			for n := 0; n < steps; n++ {
				if !it.Step() {
					break
				}
			}

			before := it.Export()

			var buf bytes.Buffer
			if err := before.Encode(&buf); err != nil {
				return false
			}
			decoded, err := interpreter.DecodeState(&buf)
			if err != nil {
				return false
			}

			other := interpreter.NewInterpreter(quiet()...)
			if err := other.Load("ASSIGN limit, " + fmt.Sprint(limit) + "\n" + src); err != nil {
				return false
			}
			if err := other.Import(decoded); err != nil {
				return false
			}
			after := other.Export()

			if !reflect.DeepEqual(before, after) {
				return false
			}

			// free list is the ascending complement of the sparse heap
			var want []int
			for idx := range other.Heap() {
				if _, ok := decoded.Heap[idx]; !ok {
					want = append(want, idx)
				}
			}
			return slices.Equal(other.FreeList(), want)
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestPropertyIntegerArithmetic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	eval := func(op string, a, b int64) (value.Value, *interpreter.Fault) {
		it := interpreter.NewInterpreter(quiet()...)
		if err := it.Load(fmt.Sprintf("%s r, %d, %d", op, a, b)); err != nil {
			return value.Value{}, nil
		}
		_ = it.Run(context.Background())
		return it.Globals()["r"], it.LastFault()
	}

	small := gen.Int64Range(-1_000_000, 1_000_000)

	properties.Property("add and sub are inverse", prop.ForAll(
		func(a, b int64) bool {
			sum, f := eval("ADD", a, b)
			if f != nil || sum.Kind != value.KindInt {
				return false
			}
			diff, f := eval("SUB", sum.I64, b)
			return f == nil && diff.Equal(value.NewInt(a))
		},
		small, small,
	))

	properties.Property("mod takes the sign of the divisor", prop.ForAll(
		func(a, b int64) bool {
			r, f := eval("MOD", a, b)
			if b == 0 {
				return f != nil && f.Kind == interpreter.FaultModuloByZero
			}
			if f != nil || r.Kind != value.KindInt {
				return false
			}
			if r.I64 != 0 && (r.I64 < 0) != (b < 0) {
				return false
			}
			// a == b*floor(a/b) + r
			q := (a - r.I64) / b
			return q*b+r.I64 == a
		},
		small, gen.Int64Range(-50, 50),
	))

	properties.Property("div always yields a float", prop.ForAll(
		func(a, b int64) bool {
			r, f := eval("DIV", a, b)
			if b == 0 {
				return f != nil && f.Kind == interpreter.FaultDivisionByZero
			}
			return f == nil && r.Kind == value.KindFloat
		},
		small, gen.Int64Range(-50, 50),
	))

	properties.TestingRun(t)
}
