package program_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tacvm/pkg/program"
	"tacvm/pkg/value"
)

// Property: a jump to a label defined further down resolves to the index of
// the first instruction after the label.
func TestPropertyForwardReference(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("forward jump resolves to label index", prop.ForAll(
		func(label string, before, after int) bool {
			label = "L_" + label
			var b strings.Builder
			fmt.Fprintf(&b, "JUMP %s\n", label)
			for i := 0; i < before; i++ {
				fmt.Fprintf(&b, "ASSIGN v%d, %d\n", i, i)
			}
			fmt.Fprintf(&b, "%s:\n", label)
			for i := 0; i < after; i++ {
				b.WriteString("# filler\nHALT\n")
			}

			p, err := program.Load(b.String())
			if err != nil {
				return false
			}

			jump, _ := p.At(0)
			idx, ok := p.Label(label)
			return ok && idx == before+1 && jump.Operands[0].Value.Equal(value.NewInt(int64(idx)))
		},
		gen.Identifier(),
		gen.IntRange(0, 50),
		gen.IntRange(0, 10),
	))

	properties.Property("undefined labels never produce a program", prop.ForAll(
		func(label string, n int) bool {
			var b strings.Builder
			for i := 0; i < n; i++ {
				b.WriteString("HALT\n")
			}
			fmt.Fprintf(&b, "JUMPT %s_missing, cond\n", label)

			p, err := program.Load(b.String())
			var le *program.LoadError
			ok := err != nil && p == nil
			if ok {
				ok = asLoadError(err, &le) && le.Line == n+1
			}
			return ok
		},
		gen.Identifier(),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func asLoadError(err error, target **program.LoadError) bool {
	le, ok := err.(*program.LoadError)
	if ok {
		*target = le
	}
	return ok
}
