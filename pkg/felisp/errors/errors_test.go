package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFelispError_String(t *testing.T) {
	tests := []struct {
		name     string
		err      *FelispError
		expected string
	}{
		{
			name:     "message only",
			err:      &FelispError{Message: "unexpected )"},
			expected: "unexpected )",
		},
		{
			name:     "with line and column",
			err:      &FelispError{Message: "unexpected )", Line: 2, Column: 7},
			expected: "line 2, column 7: unexpected )",
		},
		{
			name:     "with hints",
			err:      &FelispError{Message: "unexpected symbol k='fo'", Hints: []string{"did you mean `fn`?"}},
			expected: "unexpected symbol k='fo'\n  did you mean `fn`?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFelispError_ErrorIsBareMessage(t *testing.T) {
	err := NewWithPosition("PARSE-0002", 3, 4, nil)
	if err.Error() != "unexpected )" {
		t.Errorf("Error() = %q, want %q", err.Error(), "unexpected )")
	}
}

func TestFelispError_PrettyString(t *testing.T) {
	tests := []struct {
		name     string
		err      *FelispError
		contains []string
	}{
		{
			name:     "parser error",
			err:      NewWithPosition("PARSE-0003", 1, 5, map[string]any{"Open": 1}),
			contains: []string{"Parser error", "line 1, column 5", "could not find closing )", "hint: 1 unclosed ( remaining"},
		},
		{
			name:     "runtime error",
			err:      New("FORM-0002", nil),
			contains: []string{"Runtime error", "first form must be a function"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.PrettyString()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("PrettyString() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestNewFromCatalog(t *testing.T) {
	tests := []struct {
		code     string
		data     map[string]any
		class    ErrorClass
		expected string
	}{
		{"PARSE-0001", nil, ClassParse, "could not get token"},
		{"PARSE-0002", nil, ClassParse, "unexpected )"},
		{"FORM-0001", nil, ClassForm, "expected a non-empty list"},
		{"IF-0002", map[string]any{"Form": "5"}, ClassType, "unexpected test form='5'"},
		{"IF-0003", map[string]any{"Index": 2}, ClassForm, "expected form idx=2"},
		{"ARITY-0002", map[string]any{"Expected": 2, "Got": 1}, ClassArity, "expected 2 arguments, got 1"},
		{"UNDEF-0001", map[string]any{"Name": "x"}, ClassUndefined, "unexpected symbol k='x'"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, tt.data)
			if err.Message != tt.expected {
				t.Errorf("Message = %q, want %q", err.Message, tt.expected)
			}
			if err.Class != tt.class {
				t.Errorf("Class = %q, want %q", err.Class, tt.class)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("NOPE-9999", map[string]any{"message": "custom failure"})
	if err.Message != "custom failure" {
		t.Errorf("Message = %q, want %q", err.Message, "custom failure")
	}
	if New("NOPE-9999", nil).Message != "NOPE-9999" {
		t.Error("expected code to be used as message when no data is given")
	}
}

func TestHintWithoutDataIsDropped(t *testing.T) {
	err := New("PARSE-0003", nil)
	if len(err.Hints) != 0 {
		t.Errorf("expected no hints, got %v", err.Hints)
	}
}

func TestWithPositionCopies(t *testing.T) {
	orig := New("PARSE-0002", nil)
	moved := orig.WithPosition(4, 2)
	if orig.Line != 0 || orig.Column != 0 {
		t.Error("WithPosition modified the original")
	}
	if moved.Line != 4 || moved.Column != 2 {
		t.Errorf("got %d:%d, want 4:2", moved.Line, moved.Column)
	}
}

func TestToJSON(t *testing.T) {
	data, err := NewWithPosition("PARSE-0002", 1, 1, nil).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["code"] != "PARSE-0002" || decoded["class"] != "parse" {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestFindClosestMatch(t *testing.T) {
	candidates := []string{"mytable1", "defn", "+", "<=", "lam", "sum"}

	tests := []struct {
		input    string
		expected string
	}{
		{"mytable2", "mytable1"},
		{"mytabel1", "mytable1"},
		{"defm", "defn"},
		{"lma", ""},
		{"lamb", "lam"},
		{"sum", ""}, // exact matches are not suggestions
		{"zzzzzz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindClosestMatch(tt.input, candidates); got != tt.expected {
				t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewUndefinedSymbol(t *testing.T) {
	err := NewUndefinedSymbol("mytable", []string{"mytable1", "+"})
	if err.Message != "unexpected symbol k='mytable'" {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.Hints) != 1 || err.Hints[0] != "did you mean `mytable1`?" {
		t.Errorf("Hints = %v", err.Hints)
	}

	err = NewUndefinedSymbol("x", nil)
	if len(err.Hints) != 0 {
		t.Errorf("expected no hints, got %v", err.Hints)
	}
}
