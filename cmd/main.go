package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"tacvm/internal/logger"
	"tacvm/internal/runner"
	"tacvm/pkg/color"
)

// Main entry point for the tacvm interpreter.
func main() {
	options := runner.Runner{}
	var breakpoints, watch string

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Execute, "r", false, "Run until halt, fault or breakpoint")
	flag.IntVar(&options.StepLimit, "s", 0, "Execute at most N instructions")
	flag.BoolVar(&options.List, "l", false, "Print the program listing")
	flag.BoolVar(&options.Dump, "m", false, "Print memory after stopping")
	flag.StringVar(&options.ExportFile, "o", "", "Export state to a JSON file after running")
	flag.StringVar(&options.ImportFile, "i", "", "Import state from a JSON file before running")
	flag.StringVar(&options.ConfigFile, "c", "", "Session file (.yaml, .yml or .toml)")
	flag.StringVar(&breakpoints, "b", "", "Breakpoint source lines, comma separated")
	flag.StringVar(&watch, "w", "", "Watched variables, comma separated")
	flag.IntVar(&options.MaxSteps, "max-steps", 0, "Stop after N instructions (0 = unlimited)")
	flag.StringVar(&options.Encoding, "encoding", "", "Source text encoding (e.g., utf-8, shift_jis, euc-jp, utf-16le)")
	flag.StringVar(&options.Driver, "driver", "", "Snapshot database driver (sqlite3, mysql, postgres)")
	flag.StringVar(&options.DSN, "db", "", "Snapshot database DSN")
	flag.StringVar(&options.Snapshot, "snapshot", "", "Save the final state under this name")
	flag.StringVar(&options.Restore, "restore", "", "Restore the state saved under this name before running")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file.3ac>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}
	options.SourceFile = args[0]

	var err error
	if options.Breakpoints, err = runner.ParseLines(breakpoints); err != nil {
		log.Fatal("Invalid breakpoints", "error", err)
	}
	options.Watch = runner.ParseList(watch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := options.Run(ctx); err != nil {
		stop()
		log.Fatal("Execution failed", "error", err)
	}
}
