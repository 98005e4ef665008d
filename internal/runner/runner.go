package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"tacvm/internal/config"
	"tacvm/pkg/color"
	"tacvm/pkg/interpreter"
	"tacvm/pkg/snapshot"
)

type Runner struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable verbose output
	NoColor    bool   // Disable colored output
	Execute    bool   // Run until halt, fault or breakpoint
	StepLimit  int    // Execute at most this many instructions instead of running
	List       bool   // Print the loaded program
	Dump       bool   // Print memory after stopping
	ConfigFile string // Session file (.yaml, .yml or .toml)
	ImportFile string // State to import before running
	ExportFile string // Where to write the state after running
	SourceFile string // Path to the 3AC program

	Breakpoints []int
	Watch       []string
	MaxSteps    int
	Encoding    string
	Driver      string // Snapshot database driver
	DSN         string // Snapshot database
	Snapshot    string // Save the final state under this name
	Restore     string // Import the state saved under this name

	Out io.Writer // Console, defaults to stdout
}

var ErrMaxSteps = errors.New("step budget exhausted")

// session merges the session file with the values given on the command line.
func (r *Runner) session() (config.Session, error) {
	var cfg config.Session
	if r.ConfigFile != "" {
		loaded, err := config.Load(r.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	cfg.Merge(config.Session{
		Breakpoints: r.Breakpoints,
		Watch:       r.Watch,
		MaxSteps:    r.MaxSteps,
		Encoding:    r.Encoding,
		Snapshot:    config.Snapshot{Driver: r.Driver, DSN: r.DSN},
	})
	if cfg.Snapshot.Driver == "" && cfg.Snapshot.DSN != "" {
		cfg.Snapshot.Driver = "sqlite3"
	}
	return cfg, cfg.Validate()
}

func (r *Runner) openStore(ctx context.Context, cfg config.Session) (*snapshot.Store, error) {
	if r.Snapshot == "" && r.Restore == "" {
		return nil, nil
	}
	if cfg.Snapshot.DSN == "" {
		return nil, errors.New("snapshot database not configured")
	}
	return snapshot.Open(ctx, cfg.Snapshot.Driver, cfg.Snapshot.DSN)
}

// Run loads the source file and executes it according to the options set.
func (r *Runner) Run(ctx context.Context) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	log.Info("Processing file", "file", r.SourceFile)

	cfg, err := r.session()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	src, err := ReadSource(r.SourceFile, cfg.Encoding)
	if err != nil {
		return err
	}

	it := interpreter.NewInterpreter(
		interpreter.WithWriter(&consoleWriter{w: out}),
		interpreter.WithLogger(log.Default()),
	)

	if err := it.Load(src); err != nil {
		fmt.Fprintln(out, color.Header("=== Load Error ==="))
		fmt.Fprintln(out, color.Error(err.Error()))
		return fmt.Errorf("loading failed: %w", err)
	}

	if r.List || r.Verbose {
		fmt.Fprintln(out, color.Header("=== Program Listing ==="))
		WriteListing(out, it)
	}

	store, err := r.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if r.ImportFile != "" {
		if err := ImportFile(r.ImportFile, it); err != nil {
			return err
		}
		log.Info("State imported", "file", r.ImportFile, "pc", it.PC())
	}
	if r.Restore != "" {
		st, err := store.Load(ctx, r.Restore)
		if err != nil {
			return err
		}
		if err := it.Import(st); err != nil {
			return fmt.Errorf("restore %q: %w", r.Restore, err)
		}
		log.Info("Snapshot restored", "name", r.Restore, "pc", it.PC())
	}

	var runErr error
	if r.Execute || r.StepLimit > 0 {
		sess := NewSession(it, cfg.Breakpoints, cfg.Watch, cfg.MaxSteps)
		runErr = r.execute(ctx, out, sess)
	}

	if r.Dump {
		fmt.Fprintln(out)
		WriteDump(out, it)
	}

	if r.ExportFile != "" {
		if err := ExportFile(r.ExportFile, it); err != nil {
			return err
		}
		log.Info("State exported", "file", r.ExportFile)
	}
	if r.Snapshot != "" {
		if err := store.Save(ctx, r.Snapshot, it.Export()); err != nil {
			return err
		}
		log.Info("Snapshot saved", "name", r.Snapshot, "pc", it.PC())
	}

	return runErr
}

func (r *Runner) execute(ctx context.Context, out io.Writer, sess *Session) error {
	it := sess.Interpreter()
	fmt.Fprintln(out)
	fmt.Fprintln(out, color.Header("=== Program Output ==="))

	var (
		reason StopReason
		err    error
	)
	if r.StepLimit > 0 {
		reason, err = sess.Step(ctx, r.StepLimit)
	} else {
		reason, err = sess.Continue(ctx)
	}
	if err != nil {
		return err
	}

	line := 0
	if in, ok := it.Program().At(it.PC()); ok {
		line = in.Line
	}

	switch reason {
	case StopBreakpoint:
		fmt.Fprintln(out, color.Warning(fmt.Sprintf("Breakpoint hit at line %d (PC=%d)", line, it.PC())))
	case StopStepLimit:
		fmt.Fprintln(out, color.Muted(fmt.Sprintf("Paused at line %d (PC=%d) after %d steps", line, it.PC(), it.Steps())))
	}

	if watches := sess.Watches(); len(watches) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, color.Header("=== Watch ==="))
		for _, w := range watches {
			fmt.Fprintf(out, "%s = %s\n", color.Name(w.Name), w.Value.Repr())
		}
	}

	switch reason {
	case StopFaulted:
		return fmt.Errorf("execution failed: %w", it.LastFault())
	case StopMaxSteps:
		return fmt.Errorf("%w after %d steps", ErrMaxSteps, it.Steps())
	}
	return nil
}

// consoleWriter styles each complete line the interpreter writes.
type consoleWriter struct {
	w   io.Writer
	buf []byte
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	for {
		idx := bytes.IndexByte(c.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(c.buf[:idx])
		c.buf = c.buf[idx+1:]
		if _, err := fmt.Fprintln(c.w, color.ConsoleLine(line)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// ParseLines parses a comma separated list of source lines.
func ParseLines(s string) ([]int, error) {
	var lines []int
	for _, field := range ParseList(s) {
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid line number %q", field)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

// ParseList splits a comma separated list, dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
