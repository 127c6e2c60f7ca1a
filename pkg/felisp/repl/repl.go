package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
	"github.com/sambeau/felisp/pkg/felisp/evaluator"
	"github.com/sambeau/felisp/pkg/felisp/felisp"
	"github.com/sambeau/felisp/pkg/felisp/lexer"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const FELISP_LOGO = `
█▀▀ █▀▀ █░░ █ █▀ █▀█
█▀░ ██▄ █▄▄ █ ▄█ █▀▀ `

var metaCommands = []string{":help", ":env", ":tables", ":clear", ":save", ":load"}

// Snapshots is the part of a table store the :save and :load commands use
type Snapshots interface {
	Save(ctx context.Context, t *table.Table) error
	Load(ctx context.Context, name string) (*table.Table, error)
	Tables(ctx context.Context) ([]string, error)
}

// Options configure a REPL session
type Options struct {
	Prompt      string    // Main prompt (default PROMPT)
	HistoryFile string    // "" disables history
	Color       string    // auto, always or never
	Version     string    // Shown in the banner
	Store       Snapshots // nil disables :save and :load
}

// Session holds the state of one interactive session independently of the
// terminal, so lines can be fed from anywhere
type Session struct {
	interp *felisp.Interpreter
	out    io.Writer
	opts   Options
	input  strings.Builder
	halt   *evaluator.Halt

	errColor  *color.Color
	hintColor *color.Color
}

// NewSession creates a session evaluating into interp and printing to out
func NewSession(interp *felisp.Interpreter, out io.Writer, opts Options) *Session {
	if opts.Prompt == "" {
		opts.Prompt = PROMPT
	}
	s := &Session{
		interp:    interp,
		out:       out,
		opts:      opts,
		errColor:  color.New(color.FgRed),
		hintColor: color.New(color.FgYellow),
	}
	switch opts.Color {
	case "always":
		s.errColor.EnableColor()
		s.hintColor.EnableColor()
	case "never":
		s.errColor.DisableColor()
		s.hintColor.DisableColor()
	}
	return s
}

// Prompt returns the prompt for the next line
func (s *Session) Prompt() string {
	if s.input.Len() > 0 {
		return CONTINUATION_PROMPT
	}
	return s.opts.Prompt
}

// Pending reports whether an incomplete form is buffered
func (s *Session) Pending() bool {
	return s.input.Len() > 0
}

// Discard drops any buffered input
func (s *Session) Discard() {
	s.input.Reset()
}

// Halted returns the halt that ended the session, if any
func (s *Session) Halted() *evaluator.Halt {
	return s.halt
}

// Feed processes one line of input. It returns the complete form that was
// evaluated ("" when nothing was) and whether the session is over.
func (s *Session) Feed(line string) (form string, done bool) {
	trimmed := strings.TrimSpace(line)

	if s.input.Len() == 0 {
		// Check for quit command
		if trimmed == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			return "", true
		}

		// Handle REPL commands (start with :)
		if strings.HasPrefix(trimmed, ":") {
			s.handleCommand(trimmed)
			return "", false
		}

		// Skip empty lines when no input buffered
		if trimmed == "" {
			return "", false
		}
	}

	if s.input.Len() > 0 {
		s.input.WriteString("\n")
	}
	s.input.WriteString(line)

	full := s.input.String()
	if needsMoreInput(full) {
		return "", false
	}
	s.input.Reset()

	val, err := s.interp.EvalString(full)
	if err != nil {
		if h, ok := evaluator.AsHalt(err); ok {
			s.halt = h
			fmt.Fprintln(s.out, "Goodbye!")
			return full, true
		}
		s.printError(err)
		return full, false
	}

	fmt.Fprintln(s.out, val.String())
	return full, false
}

// printError prints parser and runtime errors with their hints
func (s *Session) printError(err error) {
	var ferr *perrors.FelispError
	if !errors.As(err, &ferr) {
		s.errColor.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	lines := strings.Split(ferr.PrettyString(), "\n")
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "hint:") {
			s.hintColor.Fprintln(s.out, line)
		} else {
			s.errColor.Fprintln(s.out, line)
		}
	}
}

func (s *Session) handleCommand(cmd string) {
	fields := strings.Fields(cmd)
	args := fields[1:]

	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show variables in scope")
		fmt.Fprintln(s.out, "  :tables         List tables")
		fmt.Fprintln(s.out, "  :clear          Reset variables and tables")
		fmt.Fprintln(s.out, "  :save [name]    Save tables to the store")
		fmt.Fprintln(s.out, "  :load [name]    Load tables from the store")
		fmt.Fprintln(s.out, "  quit, (exit)    Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Special forms: "+strings.Join(evaluator.SpecialForms, " "))

	case ":env":
		s.printEnvironment()

	case ":tables":
		s.printTables()

	case ":clear":
		if err := s.interp.Reset(); err != nil {
			s.printError(err)
			return
		}
		fmt.Fprintln(s.out, "Environment cleared")

	case ":save":
		s.save(args)

	case ":load":
		s.load(args)

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", fields[0])
	}
}

// printEnvironment displays all user-defined variables in the environment
func (s *Session) printEnvironment() {
	env := s.interp.Env()
	names := env.UserVariables()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "(no user variables)")
		return
	}

	for _, name := range names {
		val, _ := env.Get(name)
		value := val.String()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(s.out, "  %s: %s = %s\n", name, val.Type(), value)
	}
}

func (s *Session) printTables() {
	catalog := s.interp.Tables()
	if catalog.Len() == 0 {
		fmt.Fprintln(s.out, "(no tables)")
		return
	}
	for _, name := range catalog.Names() {
		t, _ := catalog.Get(name)
		fmt.Fprintf(s.out, "  %s\n", t.Header())
	}
}

// tableNames returns args, or every catalog table when args is empty
func (s *Session) tableNames(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return s.interp.Tables().Names()
}

func (s *Session) save(args []string) {
	if s.opts.Store == nil {
		fmt.Fprintln(s.out, "No store configured (set store.driver and store.dsn)")
		return
	}
	ctx := context.Background()
	for _, name := range s.tableNames(args) {
		t, ok := s.interp.Tables().Get(name)
		if !ok {
			fmt.Fprintf(s.out, "Unknown table: %s\n", name)
			continue
		}
		if err := s.opts.Store.Save(ctx, t); err != nil {
			s.printError(err)
			continue
		}
		fmt.Fprintf(s.out, "Saved %s\n", t.Header())
	}
}

func (s *Session) load(args []string) {
	if s.opts.Store == nil {
		fmt.Fprintln(s.out, "No store configured (set store.driver and store.dsn)")
		return
	}
	ctx := context.Background()
	names := args
	if len(names) == 0 {
		stored, err := s.opts.Store.Tables(ctx)
		if err != nil {
			s.printError(err)
			return
		}
		names = stored
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "(no saved tables)")
		return
	}
	for _, name := range names {
		t, err := s.opts.Store.Load(ctx, name)
		if err != nil {
			s.printError(err)
			continue
		}
		s.interp.Attach(t)
		fmt.Fprintf(s.out, "Loaded %s\n", t.Header())
	}
}

// Complete returns completion suggestions for the word being typed
func (s *Session) Complete(line string) []string {
	// Don't complete if line ends with whitespace
	if strings.TrimSpace(line) == "" || strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return nil
	}

	tokens := lexer.Tokenize(line)
	last := tokens[len(tokens)-1]
	if last.Type != lexer.ATOM || !strings.HasSuffix(line, last.Literal) {
		return nil
	}
	prefix := line[:len(line)-len(last.Literal)]

	candidates := s.interp.Env().AllIdentifiers()
	if prefix == "" {
		candidates = append(candidates, metaCommands...)
		candidates = append(candidates, "quit")
	}
	sort.Strings(candidates)

	var matches []string
	for _, word := range candidates {
		if strings.HasPrefix(word, last.Literal) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput reports whether input has unclosed parentheses
func needsMoreInput(input string) bool {
	depth := 0
	for _, tok := range lexer.Tokenize(input) {
		switch tok.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
		}
	}
	return depth > 0
}

// Start runs the REPL on the terminal with line editing, history, and tab
// completion. It returns when the user quits or the program halts.
func Start(interp *felisp.Interpreter, out io.Writer, opts Options) error {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	session := NewSession(interp, out, opts)
	line.SetCompleter(session.Complete)

	// Load command history from file
	if opts.HistoryFile != "" {
		if f, err := os.Open(opts.HistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}

		// Save history on exit
		defer func() {
			if f, err := os.Create(opts.HistoryFile); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Fprintf(out, "%s", FELISP_LOGO)
	fmt.Fprintln(out, "v", opts.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'quit', (exit) or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(session.Prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if session.Pending() {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				session.Discard()
				continue
			}
			if err == io.EOF {
				// Ctrl+D - exit
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		form, done := session.Feed(input)
		if form != "" {
			line.AppendHistory(form)
		}
		if done {
			return nil
		}
	}
}
