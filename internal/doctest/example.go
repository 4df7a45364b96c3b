package doctest

import (
	"context"
	"regexp"
)

// Syntax describes the prompts of an interactive session.
type Syntax struct {
	PS1 string // starts an example
	PS2 string // continues its source

	// Traceback, when set, recognises expected output that describes a raised
	// exception. Its "msg" group captures the part that is compared.
	Traceback *regexp.Regexp
}

// PythonSyntax is the syntax of the Python interactive interpreter.
var PythonSyntax = Syntax{
	PS1:       ">>>",
	PS2:       "...",
	Traceback: regexp.MustCompile(`(?ms)\ATraceback \((?:most recent call last|innermost last)\):[ \t]*$.*?^(?P<msg>\w+.*)`),
}

// ShellSyntax is the syntax of a shell session transcript.
var ShellSyntax = Syntax{
	PS1: "$",
	PS2: ">",
}

// Example is a single prompt with its expected output.
type Example struct {
	Source  string // always ends with a newline
	Want    string // empty, or ends with a newline
	ExcMsg  string // expected exception message, empty when none is expected
	Lineno  int    // 0-based line of the prompt within the test text
	Indent  int
	Options map[Flag]bool
}

// Test is a sequence of examples sharing one session.
type Test struct {
	Name     string
	Filename string
	Lineno   int // 1-based line of the first line of Text; 0 when unknown
	Text     string
	Examples []*Example
}

// Outcome is what a session observed while executing one example.
type Outcome struct {
	Output    string
	Exception string // e.g. "NameError: name 'x' is not defined\n"
	Traceback string
}

// Session executes example sources against a shared set of bindings.
type Session interface {
	// Exec runs source. A returned error means the session itself broke;
	// failures of the example are reported through the Outcome.
	Exec(ctx context.Context, source, name string) (Outcome, error)
	Close() error
}
