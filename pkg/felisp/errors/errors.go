// Package errors provides the structured error type for the Felisp language.
//
// Felisp reports every failure, from a stray parenthesis to an arity
// mismatch, as a single error type. FelispError carries a human-readable
// message plus metadata (class, catalog code, hints, position) for display.
// Callers distinguish failures by Message.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Tokens could not form an expression
	ClassForm      ErrorClass = "form"      // Malformed special form or call
	ClassType      ErrorClass = "type"      // Wrong kind of value
	ClassArity     ErrorClass = "arity"     // Wrong argument count
	ClassUndefined ErrorClass = "undefined" // Unbound symbol
	ClassTable     ErrorClass = "table"     // Table store operations
)

// FelispError represents any error from parsing or evaluation.
type FelispError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based line (0 if unknown)
	Column  int            `json:"column"` // 1-based column (0 if unknown)
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface. It returns the bare message so that
// callers can match on it.
func (e *FelispError) Error() string {
	return e.Message
}

// String returns the message with its location prefix and hints.
func (e *FelispError) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for the REPL and CLI.
func (e *FelispError) PrettyString() string {
	var sb strings.Builder

	if e.IsParseError() {
		sb.WriteString("Parser error")
	} else {
		sb.WriteString("Runtime error")
	}

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  hint: ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *FelispError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithPosition returns a copy of the error with line and column set.
func (e *FelispError) WithPosition(line, column int) *FelispError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a parser error.
func (e *FelispError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Parse errors
	"PARSE-0001": {Class: ClassParse, Template: "could not get token"},
	"PARSE-0002": {Class: ClassParse, Template: "unexpected )"},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "could not find closing )",
		Hints:    []string{"{{.Open}} unclosed ( remaining"},
	},

	// List evaluation
	"FORM-0001": {Class: ClassForm, Template: "expected a non-empty list"},
	"FORM-0002": {Class: ClassForm, Template: "first form must be a function"},
	"FORM-0003": {Class: ClassForm, Template: "unexpected form"},
	"FORM-0004": {Class: ClassForm, Template: "unexpected form in lambda"},

	// if
	"IF-0001": {Class: ClassForm, Template: "expected test form"},
	"IF-0002": {Class: ClassType, Template: "unexpected test form='{{.Form}}'"},
	"IF-0003": {Class: ClassForm, Template: "expected form idx={{.Index}}"},

	// defn, fn, select, insert
	"SPECIAL-0001": {Class: ClassForm, Template: "expected first form"},
	"SPECIAL-0002": {Class: ClassForm, Template: "expected second form"},
	"SPECIAL-0003": {Class: ClassForm, Template: "expected third form"},
	"DEFN-0001":    {Class: ClassType, Template: "expected first form to be a symbol"},
	"DEFN-0002":    {Class: ClassArity, Template: "defn can only have two forms"},
	"FN-0001":      {Class: ClassForm, Template: "expected args form"},
	"FN-0002":      {Class: ClassArity, Template: "fn definition can only have two forms"},

	// Arguments
	"TYPE-0001":  {Class: ClassType, Template: "expected a number"},
	"TYPE-0002":  {Class: ClassType, Template: "expected args form to be a list"},
	"TYPE-0003":  {Class: ClassType, Template: "expected symbols in the argument list"},
	"ARITY-0001": {Class: ClassArity, Template: "expected at least one number"},
	"ARITY-0002": {Class: ClassArity, Template: "expected {{.Expected}} arguments, got {{.Got}}"},

	// Symbols
	"UNDEF-0001": {Class: ClassUndefined, Template: "unexpected symbol k='{{.Name}}'"},

	// Table store
	"TABLE-0001": {Class: ClassTable, Template: "table '{{.Name}}' already exists"},
	"TABLE-0002": {Class: ClassTable, Template: "row index {{.Index}} is beyond the next page of table '{{.Name}}'"},
}

// New creates a FelispError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *FelispError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &FelispError{
			Class:   ClassForm,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		if rendered := renderTemplate(hintTmpl, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &FelispError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a FelispError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *FelispError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		// Hints that need data are dropped rather than shown with placeholders
		if strings.Contains(tmplStr, "{{") {
			return ""
		}
		return tmplStr
	}

	tmpl, err := template.New("").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// Fuzzy matching for "did you mean" hints

var fuzzyOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// distance is the plain edit distance between two names.
func distance(a, b string) int {
	return levenshtein.DistanceForStrings([]rune(a), []rune(b), fuzzyOptions)
}

// threshold scales the number of allowed edits with the length of the input:
// 1 edit up to 3 runes, 2 up to 6, 3 beyond.
func threshold(input string) int {
	n := len([]rune(input))
	switch {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate closest to input, or "" when none is
// within the threshold. Exact matches are never suggested. Ties go to the
// alphabetically first candidate so hints are stable.
func FindClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best := ""
	bestDistance := -1
	for _, candidate := range sorted {
		d := distance(input, candidate)
		if d == 0 {
			continue
		}
		if bestDistance == -1 || d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}

	if bestDistance == -1 || bestDistance > threshold(input) {
		return ""
	}
	return best
}

// NewUndefinedSymbol creates an unbound symbol error with an optional
// "did you mean" hint drawn from the visible identifiers.
func NewUndefinedSymbol(name string, visible []string) *FelispError {
	err := New("UNDEF-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, visible); suggestion != "" {
		err.Hints = append(err.Hints, "did you mean `"+suggestion+"`?")
	}
	return err
}
