package program_test

import (
	"errors"
	"testing"

	"tacvm/pkg/program"
	"tacvm/pkg/value"
)

func mustLoad(t *testing.T, src string) *program.Program {
	t.Helper()
	p, err := program.Load(src)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return p
}

func TestLoadSimple(t *testing.T) {
	p := mustLoad(t, "ASSIGN x, 10\nHALT")

	if p.Len() != 2 {
		t.Fatalf("expected 2 instructions, got %d", p.Len())
	}

	in, _ := p.At(0)
	if in.Op != program.OpAssign {
		t.Errorf("expected ASSIGN, got %s", in.Op)
	}
	if len(in.Operands) != 2 || in.Operands[0].Name != "x" || !in.Operands[1].Value.Equal(value.NewInt(10)) {
		t.Errorf("unexpected operands: %v", in.Operands)
	}

	halt, _ := p.At(1)
	if halt.Op != program.OpHalt || len(halt.Operands) != 0 {
		t.Errorf("expected bare HALT, got %s", halt)
	}
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	src := `# header comment

  assign a, 1
	# indented comment
add b, a, 2
`
	p := mustLoad(t, src)

	if p.Len() != 2 {
		t.Fatalf("expected 2 instructions, got %d", p.Len())
	}

	first, _ := p.At(0)
	if first.Op != program.OpAssign || first.Line != 3 {
		t.Errorf("expected ASSIGN on line 3, got %s on line %d", first.Op, first.Line)
	}
	second, _ := p.At(1)
	if second.Op != program.OpAdd || second.Line != 5 {
		t.Errorf("expected ADD on line 5, got %s on line %d", second.Op, second.Line)
	}
}

func TestLoadResolvesLabels(t *testing.T) {
	src := "JUMP my_label\nHALT\nmy_label:\nASSIGN y, 20"
	p := mustLoad(t, src)

	idx, ok := p.Label("my_label")
	if !ok || idx != 2 {
		t.Fatalf("expected my_label at 2, got %d (%v)", idx, ok)
	}

	jump, _ := p.At(0)
	target := jump.Operands[0]
	if target.IsRef() {
		t.Errorf("jump target should be resolved, still names %q", target.Name)
	}
	if !target.Value.Equal(value.NewInt(2)) || target.Label != "my_label" {
		t.Errorf("expected target 2 from my_label, got %v from %q", target.Value, target.Label)
	}
}

func TestLoadLabelRedefinitionLastWins(t *testing.T) {
	src := "top:\nASSIGN a, 1\ntop:\nASSIGN b, 2\nJUMP top"
	p := mustLoad(t, src)

	jump, _ := p.At(2)
	if !jump.Operands[0].Value.Equal(value.NewInt(1)) {
		t.Errorf("expected last definition (1), got %v", jump.Operands[0].Value)
	}
}

func TestLoadUndefinedLabel(t *testing.T) {
	tests := []struct {
		src   string
		label string
		line  int
	}{
		{"JUMP non_existent_label", "non_existent_label", 1},
		{"ASSIGN c, true\nJUMPF nowhere, c", "nowhere", 2},
		{"PARAM 1\nCALL missing_fn, 1, r", "missing_fn", 2},
		{"JUMP 3", "3", 1},
	}

	for _, test := range tests {
		p, err := program.Load(test.src)
		if p != nil {
			t.Errorf("%q: expected no program", test.src)
		}
		if !errors.Is(err, program.ErrUndefinedLabel) {
			t.Errorf("%q: expected undefined label error, got %v", test.src, err)
			continue
		}

		var le *program.LoadError
		if !errors.As(err, &le) || le.Name != test.label || le.Line != test.line {
			t.Errorf("%q: expected label %q on line %d, got %+v", test.src, test.label, test.line, le)
		}
	}
}

func TestLoadSyntaxErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
	}{
		{"ASSIGN x, 1\n+++ x", 2},
		{"PRINT \"unterminated", 1},
		{"ADD a,,b", 1},
		{"HALT\nJUMP", 2},
		{":", 1},
		{"CONST_ASSIGN big, 99999999999999999999", 1},
	}

	for _, test := range tests {
		_, err := program.Load(test.src)
		if !errors.Is(err, program.ErrSyntax) {
			t.Errorf("%q: expected syntax error, got %v", test.src, err)
			continue
		}

		var le *program.LoadError
		if errors.As(err, &le) && le.Line != test.line {
			t.Errorf("%q: expected line %d, got %d", test.src, test.line, le.Line)
		}
	}
}

func TestOperandClassification(t *testing.T) {
	p := mustLoad(t, `print TRUE, false, -5, 3., -0.25, "a, b", "", name, -x, 1e5`)

	in, _ := p.At(0)
	if in.Op != program.OpPrint {
		t.Fatalf("expected opcode to be upper-cased, got %s", in.Op)
	}

	expected := []struct {
		kind value.Kind
		text string
	}{
		{value.KindBool, "true"},
		{value.KindBool, "false"},
		{value.KindInt, "-5"},
		{value.KindFloat, "3.0"},
		{value.KindFloat, "-0.25"},
		{value.KindString, "a, b"},
		{value.KindString, ""},
		{value.KindAbsent, "name"},
		{value.KindAbsent, "-x"},
		{value.KindAbsent, "1e5"},
	}

	if len(in.Operands) != len(expected) {
		t.Fatalf("expected %d operands, got %d: %v", len(expected), len(in.Operands), in.Operands)
	}

	for i, want := range expected {
		op := in.Operands[i]
		if want.kind == value.KindAbsent {
			if !op.IsRef() || op.Name != want.text {
				t.Errorf("operand %d: expected reference %q, got %v", i, want.text, op)
			}
			continue
		}
		if op.IsRef() || op.Value.Kind != want.kind || op.Value.String() != want.text {
			t.Errorf("operand %d: expected %s %q, got %s %q", i, want.kind, want.text, op.Value.Kind, op.Value)
		}
	}
}

func TestOpcodeCategories(t *testing.T) {
	tests := []struct {
		op       program.Opcode
		expected program.Category
	}{
		{program.OpConstAssign, program.CatAssignment},
		{program.OpAnd, program.CatArithmetic},
		{program.OpGetchar, program.CatString},
		{program.OpJumpF, program.CatControl},
		{program.OpRefParam, program.CatFunction},
		{program.OpIndexStore, program.CatHeap},
		{program.OpUminus, program.CatMisc},
		{program.Opcode("NOP"), program.CatUnknown},
	}

	for _, test := range tests {
		if got := test.op.Category(); got != test.expected {
			t.Errorf("%s: expected %s, got %s", test.op, test.expected, got)
		}
	}
}
