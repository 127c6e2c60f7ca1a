package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sambeau/felisp/pkg/felisp/felisp"
	"github.com/sambeau/felisp/pkg/felisp/store"
	"github.com/sambeau/felisp/pkg/felisp/table"
)

func newSession(t *testing.T, opts Options) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	interp, err := felisp.New(felisp.Options{Logger: felisp.WriterLogger(&out)})
	if err != nil {
		t.Fatal(err)
	}
	opts.Color = "never"
	return NewSession(interp, &out, opts), &out
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"(+ 1 2)", false},
		{"(+ 1", true},
		{"(defn f (fn (a)", true},
		{"(defn f (fn (a)\n  a))", false},
		{"x", false},
		{")", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := needsMoreInput(tt.input); got != tt.expected {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFeedPrintsResults(t *testing.T) {
	s, out := newSession(t, Options{})

	s.Feed("(defn x 5)")
	s.Feed("(+ x 1)")
	s.Feed("(> x 1)")

	if got := out.String(); got != "x\n6\ntrue\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFeedBuffersIncompleteForms(t *testing.T) {
	s, out := newSession(t, Options{})

	form, done := s.Feed("(+ 1")
	if form != "" || done {
		t.Fatalf("incomplete form was evaluated: %q", form)
	}
	if !s.Pending() || s.Prompt() != CONTINUATION_PROMPT {
		t.Error("expected the continuation prompt")
	}

	form, _ = s.Feed("   2)")
	if form != "(+ 1\n   2)" {
		t.Errorf("history form = %q", form)
	}
	if out.String() != "3\n" {
		t.Errorf("output = %q", out.String())
	}
	if s.Prompt() != PROMPT {
		t.Errorf("prompt = %q", s.Prompt())
	}
}

func TestDiscard(t *testing.T) {
	s, out := newSession(t, Options{Prompt: "> "})
	s.Feed("(defn x")
	s.Discard()
	if s.Pending() || s.Prompt() != "> " {
		t.Error("Discard kept buffered input")
	}
	s.Feed("1")
	if out.String() != "1\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestFeedPrintsErrors(t *testing.T) {
	s, out := newSession(t, Options{})

	_, done := s.Feed("(+ 1 2")
	if done {
		t.Fatal("session ended")
	}
	s.Discard()

	s.Feed("(mytable)")
	got := out.String()
	if !strings.Contains(got, "Runtime error:\n  unexpected symbol k='mytable'") {
		t.Errorf("missing error:\n%s", got)
	}
	if !strings.Contains(got, "hint: did you mean `mytable1`?") {
		t.Errorf("missing hint:\n%s", got)
	}

	out.Reset()
	s.Feed(")")
	if !strings.Contains(out.String(), "Parser error: line 1, column 1\n  unexpected )") {
		t.Errorf("missing parse error:\n%s", out.String())
	}
}

func TestExitEndsSession(t *testing.T) {
	s, out := newSession(t, Options{})

	form, done := s.Feed("(exit 3)")
	if !done || form != "(exit 3)" {
		t.Fatalf("Feed = %q, %v", form, done)
	}
	h := s.Halted()
	if h == nil || h.ExitCode() != 0 {
		t.Errorf("halt = %v", h)
	}
	if !strings.HasSuffix(out.String(), "Goodbye!\n") {
		t.Errorf("output = %q", out.String())
	}

	s2, _ := newSession(t, Options{})
	if _, done := s2.Feed("quit"); !done {
		t.Error("quit should end the session")
	}
	if s2.Halted() != nil {
		t.Error("quit is not a halt")
	}
}

func TestInsertAndSelectOutput(t *testing.T) {
	s, out := newSession(t, Options{})
	s.Feed("(insert mytable1 ann ann@example.com)")

	want := strings.Join([]string{
		"Table: <mytable1, 1 rows, 1 pages>",
		`Row { id: 1, username: "ann", email: "ann@example.com" }`,
		"mytable1",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCommands(t *testing.T) {
	s, out := newSession(t, Options{})

	s.Feed(":help")
	if !strings.Contains(out.String(), ":tables") {
		t.Errorf("help output:\n%s", out.String())
	}

	out.Reset()
	s.Feed("(defn x 42)")
	s.Feed("(defn inc (fn (n) (+ n 1)))")
	out.Reset()
	s.Feed(":env")
	want := "  inc: LAMBDA = Lambda {}\n  mytable1: TABLE = Table: Name: mytable1 Rows: 0\n  x: NUMBER = 42\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf(":env mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	s.Feed(":tables")
	if out.String() != "  Table: <mytable1, 0 rows, 0 pages>\n" {
		t.Errorf(":tables = %q", out.String())
	}

	out.Reset()
	s.Feed(":clear")
	s.Feed(":env")
	if out.String() != "Environment cleared\n  mytable1: TABLE = Table: Name: mytable1 Rows: 0\n" {
		t.Errorf("after :clear = %q", out.String())
	}

	out.Reset()
	s.Feed(":bogus")
	if !strings.Contains(out.String(), "Unknown command: :bogus") {
		t.Errorf("unknown command output = %q", out.String())
	}

	out.Reset()
	s.Feed(":save")
	if !strings.Contains(out.String(), "No store configured") {
		t.Errorf(":save without a store = %q", out.String())
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	s, out := newSession(t, Options{Store: st})
	s.Feed("(insert mytable1 ann ann@example.com)")
	out.Reset()

	s.Feed(":save")
	if out.String() != "Saved Table: <mytable1, 1 rows, 1 pages>\n" {
		t.Errorf(":save = %q", out.String())
	}

	s.Feed(":clear")
	out.Reset()
	s.Feed(":load")
	if out.String() != "Loaded Table: <mytable1, 1 rows, 1 pages>\n" {
		t.Errorf(":load = %q", out.String())
	}

	out.Reset()
	s.Feed(":load nope")
	if !strings.Contains(out.String(), "nope") {
		t.Errorf(":load of a missing table = %q", out.String())
	}

	out.Reset()
	s.Feed(":save nope")
	if out.String() != "Unknown table: nope\n" {
		t.Errorf(":save of a missing table = %q", out.String())
	}
}

type fakeSnapshots struct {
	saved []string
}

func (f *fakeSnapshots) Save(_ context.Context, t *table.Table) error {
	f.saved = append(f.saved, t.Name)
	return nil
}

func (f *fakeSnapshots) Load(_ context.Context, name string) (*table.Table, error) {
	return table.New(name), nil
}

func (f *fakeSnapshots) Tables(context.Context) ([]string, error) {
	return nil, nil
}

func TestSaveNamedTables(t *testing.T) {
	snaps := &fakeSnapshots{}
	s, out := newSession(t, Options{Store: snaps})
	s.interp.Attach(table.New("extra"))

	s.Feed(":save extra")
	if diff := cmp.Diff([]string{"extra"}, snaps.saved); diff != "" {
		t.Errorf("saved mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	s.Feed(":load")
	if out.String() != "(no saved tables)\n" {
		t.Errorf(":load with nothing stored = %q", out.String())
	}
}

func TestComplete(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.Feed("(defn counter 1)")

	tests := []struct {
		line string
		want []string
	}{
		{"(sel", []string{"(select"}},
		{"(+ cou", []string{"(+ counter"}},
		{":ta", []string{":tables"}},
		{"(:ta", nil},
		{"(+ 1 ", nil},
		{"", nil},
		{"(", nil},
		{"de", []string{"defn"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := s.Complete(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}
