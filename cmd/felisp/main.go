package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/sambeau/felisp/config"
	"github.com/sambeau/felisp/pkg/felisp/ast"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
	"github.com/sambeau/felisp/pkg/felisp/evaluator"
	"github.com/sambeau/felisp/pkg/felisp/felisp"
	"github.com/sambeau/felisp/pkg/felisp/repl"
	"github.com/sambeau/felisp/pkg/felisp/store"
	"github.com/sambeau/felisp/pkg/felisp/table"
	"github.com/sambeau/felisp/pkg/felisp/watch"
)

// Version is set at compile time via -ldflags
var Version = felisp.Version

// errReported means the failure was already printed to stderr
var errReported = errors.New("felisp: failed")

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	if h, ok := evaluator.AsHalt(err); ok {
		os.Exit(h.ExitCode())
	}
	if errors.Is(err, errReported) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the parsed command line
type cli struct {
	eval       string
	check      bool
	print      bool
	watch      bool
	configPath string
	scoping    string
	display    string
	trace      bool
	args       []string
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("felisp", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var c cli
	flags.StringVar(&c.eval, "e", "", "Evaluate one form")
	flags.StringVar(&c.eval, "eval", "", "Evaluate one form")
	flags.BoolVar(&c.check, "check", false, "Check syntax without executing")
	flags.BoolVar(&c.print, "print", false, "Print the value of the last form of a script")
	flags.BoolVar(&c.watch, "watch", false, "Re-run the script whenever it changes")
	flags.StringVar(&c.configPath, "config", "", "Path to config file")
	flags.StringVar(&c.scoping, "scoping", "", "Override eval.scoping (dynamic or lexical)")
	flags.StringVar(&c.display, "display", "", "Override tables.display (debug or grid)")
	flags.BoolVar(&c.trace, "trace", false, "Print evaluator trace lines to stderr")
	showVersion := flags.Bool("version", false, "Show version")
	flags.BoolVar(showVersion, "V", false, "Show version")
	showHelp := flags.Bool("help", false, "Show help")

	if err := flags.Parse(args); err != nil {
		// Handle -h/--help: flag package returns ErrHelp
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return err
	}
	c.args = flags.Args()

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "felisp version %s\n", Version)
		return nil
	}

	// Syntax checking needs no configuration
	if c.check {
		if len(c.args) == 0 {
			return errors.New("--check requires at least one file")
		}
		return checkFiles(c.args, stdout, newPrinter(stderr, "auto"))
	}

	cfg, err := loadConfig(c, getenv)
	if err != nil {
		return err
	}
	errOut := newPrinter(stderr, cfg.REPL.Color)

	opts, err := interpreterOptions(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	interp, err := felisp.New(opts)
	if err != nil {
		return fmt.Errorf("creating interpreter: %w", err)
	}

	// Optional table snapshots
	var st *store.Store
	if cfg.Store.Enabled() {
		st, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		if cfg.Store.Autoload {
			if err := restoreTables(ctx, st, interp); err != nil {
				return err
			}
		}
	}

	runErr := dispatch(ctx, c, cfg, interp, st, stdin, stdout, stderr, errOut)

	if st != nil && cfg.Store.Autosave {
		if err := st.SaveAll(ctx, interp.Tables()); err != nil {
			var result *multierror.Error
			if runErr != nil {
				result = multierror.Append(result, runErr)
			}
			result = multierror.Append(result, fmt.Errorf("saving tables: %w", err))
			return result.ErrorOrNil()
		}
	}
	return runErr
}

func dispatch(ctx context.Context, c cli, cfg *config.Config, interp *felisp.Interpreter, st *store.Store,
	stdin io.Reader, stdout, stderr io.Writer, errOut *printer) error {
	switch {
	case c.eval != "":
		// Inline evaluation mode
		val, err := interp.EvalString(c.eval)
		if err != nil {
			return errOut.report(err)
		}
		fmt.Fprintln(stdout, val.String())
		return nil

	case c.watch:
		if len(c.args) != 1 {
			return errors.New("--watch requires exactly one file")
		}
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return watchFile(ctx, c.args[0], interp, stdout, stderr, errOut)

	case len(c.args) > 0:
		// Script mode; "-" reads the script from stdin
		val, err := runScript(interp, c.args[0], stdin)
		if err != nil {
			return errOut.report(err)
		}
		if c.print && val != nil {
			fmt.Fprintln(stdout, val.String())
		}
		return nil

	default:
		ropts := repl.Options{
			Prompt:      cfg.REPL.Prompt,
			HistoryFile: cfg.REPL.HistoryPath(),
			Color:       cfg.REPL.Color,
			Version:     Version,
		}
		if st != nil {
			ropts.Store = st
		}
		return repl.Start(interp, stdout, ropts)
	}
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(c cli, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(c.configPath, getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Apply CLI overrides
	if c.scoping != "" {
		cfg.Eval.Scoping = c.scoping
	}
	if c.display != "" {
		cfg.Tables.Display = c.display
	}
	if c.trace {
		cfg.Eval.Trace = true
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// interpreterOptions maps a validated config onto interpreter options
func interpreterOptions(cfg *config.Config, stdout, stderr io.Writer) (felisp.Options, error) {
	scoping, err := evaluator.ParseScoping(cfg.Eval.Scoping)
	if err != nil {
		return felisp.Options{}, err
	}
	style, err := table.ParseStyle(cfg.Tables.Display)
	if err != nil {
		return felisp.Options{}, err
	}

	opts := felisp.Options{
		Logger:  felisp.WriterLogger(stdout),
		Scoping: scoping,
		Style:   style,
		Tables:  append([]string{}, cfg.Tables.Seed...),
	}
	if cfg.Eval.Trace {
		opts.Trace = felisp.WriterLogger(stderr)
	}
	return opts, nil
}

// restoreTables attaches every saved table to the interpreter
func restoreTables(ctx context.Context, st *store.Store, interp *felisp.Interpreter) error {
	tables, err := st.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading tables: %w", err)
	}
	for _, t := range tables {
		interp.Attach(t)
	}
	return nil
}

func runScript(interp *felisp.Interpreter, filename string, stdin io.Reader) (ast.Expression, error) {
	if filename != "-" {
		return interp.RunFile(filename)
	}
	src, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return interp.RunScript(string(src))
}

// watchFile runs the script, then runs it again from a fresh interpreter
// each time it changes
func watchFile(ctx context.Context, filename string, interp *felisp.Interpreter, stdout, stderr io.Writer, errOut *printer) error {
	runOnce := func() {
		if _, err := interp.RunFile(filename); err != nil && !evaluator.IsHalt(err) {
			errOut.report(err)
		}
	}
	runOnce()

	w, err := watch.New(filename, func(string) {
		if err := interp.Reset(); err != nil {
			errOut.report(err)
			return
		}
		runOnce()
	}, stdout, stderr)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Run(ctx)
}

// checkFiles checks the syntax of one or more files without executing them
func checkFiles(files []string, stdout io.Writer, errOut *printer) error {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filename, err)
		}

		n, err := felisp.Check(string(content))
		if err != nil {
			errOut.errColor.Fprintf(errOut.w, "%s: ", filename)
			errOut.report(err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(stdout, "%s: ok (%d forms)\n", filename, n)
	}

	if hasErrors {
		return errReported
	}
	return nil
}

// printer writes errors to stderr, coloured unless disabled
type printer struct {
	w        io.Writer
	errColor *color.Color
}

func newPrinter(w io.Writer, mode string) *printer {
	p := &printer{w: w, errColor: color.New(color.FgRed)}
	switch mode {
	case "always":
		p.errColor.EnableColor()
	case "never":
		p.errColor.DisableColor()
	}
	return p
}

// report prints err and returns what run should return for it. Halts pass
// through unprinted.
func (p *printer) report(err error) error {
	if evaluator.IsHalt(err) {
		return err
	}
	var ferr *perrors.FelispError
	if errors.As(err, &ferr) {
		p.errColor.Fprintln(p.w, ferr.PrettyString())
	} else {
		p.errColor.Fprintf(p.w, "Error: %v\n", err)
	}
	return errReported
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `felisp - Felisp interpreter version %s

Usage:
  felisp [options]              Start interactive REPL
  felisp [options] <file>       Run a script ("-" reads stdin)
  felisp -e "<form>"            Evaluate one form and print its value
  felisp --check <file>...      Check syntax without executing
  felisp --watch <file>         Run a script and re-run it on every change

Options:
  -e, --eval <form>     Evaluate one form
  --print               Print the value of the last form of a script
  --config <path>       Path to config file (default: felisp.yaml search)
  --scoping <policy>    Lambda scoping: dynamic or lexical
  --display <style>     Table display: debug or grid
  --trace               Print evaluator trace lines to stderr
  -V, --version         Show version information
  -h, --help            Show this help message

Examples:
  felisp -e "(+ 1 2)"
  felisp --print script.fl
  felisp --display grid -e "(select mytable1)"
`, Version)
}
