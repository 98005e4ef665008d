package runner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tacvm/internal/runner"
	"tacvm/pkg/color"
	"tacvm/pkg/interpreter"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sumProgram = `ASSIGN n, 3
ASSIGN acc, 0
loop:
JUMPF done, n
PARAM n
PARAM acc
CALL add, 2, acc
SUB n, n, 1
JUMP loop
done:
PRINT acc
HALT
add:
ADD r, ARG0, ARG1
RETURN r`

func TestRunPrintsOutput(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()

	var out bytes.Buffer
	r := &runner.Runner{
		Execute:    true,
		SourceFile: writeFile(t, dir, "sum.3ac", sumProgram),
		Watch:      []string{"acc", "missing"},
		Out:        &out,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{"Output: 6", "--- Program Halted ---", "acc = 6", "missing = none"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunStopsAtBreakpointAndExports(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()
	src := writeFile(t, dir, "sum.3ac", sumProgram)
	state := filepath.Join(dir, "state.json")

	var out bytes.Buffer
	r := &runner.Runner{
		Execute:     true,
		Dump:        true,
		SourceFile:  src,
		Breakpoints: []int{14},
		ExportFile:  state,
		Out:         &out,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Breakpoint hit at line 14 (PC=10)",
		"--- Current Stack Frame (Locals) ---",
		"  ARG0 = 3",
		"[0] add (ret_PC: 6)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	// resume from the exported state in a fresh run without breakpoints
	out.Reset()
	resumed := &runner.Runner{
		Execute:    true,
		SourceFile: src,
		ImportFile: state,
		Out:        &out,
	}
	if err := resumed.Run(context.Background()); err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Output: 6") {
		t.Errorf("resumed run should finish the sum:\n%s", out.String())
	}
}

func TestRunStepLimit(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	r := &runner.Runner{
		StepLimit:  3,
		SourceFile: writeFile(t, t.TempDir(), "sum.3ac", sumProgram),
		Out:        &out,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Paused at line 5 (PC=3) after 3 steps") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunFault(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	r := &runner.Runner{
		Execute:    true,
		SourceFile: writeFile(t, t.TempDir(), "bad.3ac", "ASSIGN a, 1\nMOD b, a, 0"),
		Out:        &out,
	}

	err := r.Run(context.Background())
	var f *interpreter.Fault
	if !errors.As(err, &f) || f.Kind != interpreter.FaultModuloByZero {
		t.Fatalf("expected modulo fault, got %v", err)
	}
	if !strings.Contains(out.String(), "Runtime Error at 3AC line 2 (PC=1): Modulo by zero") {
		t.Errorf("fault not on console:\n%s", out.String())
	}
}

func TestRunMaxSteps(t *testing.T) {
	color.EnableColor(false)
	r := &runner.Runner{
		Execute:    true,
		MaxSteps:   50,
		SourceFile: writeFile(t, t.TempDir(), "spin.3ac", "top:\nJUMP top"),
		Out:        &bytes.Buffer{},
	}
	if err := r.Run(context.Background()); !errors.Is(err, runner.ErrMaxSteps) {
		t.Errorf("expected ErrMaxSteps, got %v", err)
	}
}

func TestRunLoadError(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	r := &runner.Runner{
		Execute:    true,
		SourceFile: writeFile(t, t.TempDir(), "bad.3ac", "ASSIGN x, 1\nJUMP nowhere"),
		Out:        &out,
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if !strings.Contains(out.String(), "Undefined label 'nowhere' at 3AC line 2") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunListing(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	r := &runner.Runner{
		List:       true,
		SourceFile: writeFile(t, t.TempDir(), "l.3ac", "start:\nASSIGN x, \"hi\"\nJUMP start"),
		Out:        &out,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := "=== Program Listing ===\nstart:\n   0  L2    ASSIGN x, \"hi\"\n   1  L3    JUMP start(@0)\n"
	if out.String() != want {
		t.Errorf("expected listing\n%q\ngot\n%q", want, out.String())
	}
}

func TestRunSnapshotRoundTrip(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()
	src := writeFile(t, dir, "sum.3ac", sumProgram)
	cfg := writeFile(t, dir, "session.yaml", "breakpoints: [14]\nsnapshot:\n  driver: sqlite3\n  dsn: "+filepath.Join(dir, "snap.db")+"\n")

	save := &runner.Runner{
		Execute:    true,
		ConfigFile: cfg,
		SourceFile: src,
		Snapshot:   "first-call",
		Out:        &bytes.Buffer{},
	}
	if err := save.Run(context.Background()); err != nil {
		t.Fatalf("save run failed: %v", err)
	}

	var out bytes.Buffer
	restore := &runner.Runner{
		Execute:    true,
		SourceFile: src,
		DSN:        filepath.Join(dir, "snap.db"),
		Restore:    "first-call",
		Out:        &out,
	}
	if err := restore.Run(context.Background()); err != nil {
		t.Fatalf("restore run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Output: 6") {
		t.Errorf("restored run should finish the sum:\n%s", out.String())
	}
}

func TestRunSnapshotNeedsDatabase(t *testing.T) {
	r := &runner.Runner{
		SourceFile: writeFile(t, t.TempDir(), "p.3ac", "HALT"),
		Snapshot:   "x",
		Out:        &bytes.Buffer{},
	}
	if err := r.Run(context.Background()); err == nil {
		t.Errorf("expected error without a snapshot database")
	}
}

func TestParseLines(t *testing.T) {
	got, err := runner.ParseLines(" 3, 7,,12 ")
	if err != nil || !reflect.DeepEqual(got, []int{3, 7, 12}) {
		t.Errorf("unexpected %v, %v", got, err)
	}
	if _, err := runner.ParseLines("3,x"); err == nil {
		t.Errorf("expected error for non-numeric line")
	}
	if _, err := runner.ParseLines("0"); err == nil {
		t.Errorf("expected error for line 0")
	}
	if got := runner.ParseList(""); got != nil {
		t.Errorf("expected nil for empty list, got %v", got)
	}
}
