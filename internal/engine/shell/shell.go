// Package shell runs shell-session examples in an in-process POSIX shell
// interpreter. Each session is one interpreter, so variables, functions and
// the working directory carry over between the examples it runs.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Engine creates shell sessions. It holds no resources.
type Engine struct {
	dir string
}

// New returns an engine whose sessions start in dir, or in the current
// directory when dir is empty.
func New(dir string) *Engine {
	return &Engine{dir: dir}
}

func (e *Engine) Name() string { return "shell" }

func (e *Engine) Syntax() doctest.Syntax { return doctest.ShellSyntax }

// NewSession returns a fresh interpreter with the "re" builtin.
func (e *Engine) NewSession(context.Context) (doctest.Session, error) {
	s := &session{}

	opts := []interp.RunnerOption{
		interp.StdIO(nil, &s.out, &s.out),
		interp.ExecHandlers(builtins),
	}

	if len(e.dir) != 0 {
		opts = append(opts, interp.Dir(e.dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, err
	}

	s.runner = runner

	return s, nil
}

func (e *Engine) Close() error { return nil }

type session struct {
	runner *interp.Runner
	out    syncBuffer
}

// Exec runs source. Exit statuses are not failures; what the commands printed
// on stdout and stderr is the output.
func (s *session) Exec(ctx context.Context, source, name string) (doctest.Outcome, error) {
	s.out.Reset()

	file, err := syntax.NewParser().Parse(strings.NewReader(source), name)
	if err != nil {
		return doctest.Outcome{Exception: err.Error() + "\n"}, nil
	}

	err = s.runner.Run(ctx, file)

	outcome := doctest.Outcome{Output: s.out.String()}

	if ctx.Err() != nil {
		return outcome, ctx.Err()
	}

	if err != nil {
		if _, ok := interp.IsExitStatus(err); !ok {
			outcome.Exception = err.Error() + "\n"
		}
	}

	return outcome, nil
}

func (s *session) Close() error { return nil }

// builtins adds the commands every session starts with. Shell functions of
// the same name take precedence.
func builtins(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if args[0] != "re" {
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)

		return matchRegexp(hc.Stdin, hc.Stdout, hc.Stderr, args[1:])
	}
}

// matchRegexp implements "re PATTERN [STRING...]": it prints every match of
// PATTERN in the strings, or in the lines of stdin when no string is given.
func matchRegexp(stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	const (
		noMatch = 1
		misuse  = 2
	)

	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: re PATTERN [STRING...]")

		return interp.NewExitStatus(misuse)
	}

	re, err := regexp.Compile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "re: %v\n", err)

		return interp.NewExitStatus(misuse)
	}

	inputs := args[1:]

	if len(inputs) == 0 && stdin != nil {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			inputs = append(inputs, scanner.Text())
		}
	}

	found := false

	for _, input := range inputs {
		for _, match := range re.FindAllString(input, -1) {
			fmt.Fprintln(stdout, match)

			found = true
		}
	}

	if !found {
		return interp.NewExitStatus(noMatch)
	}

	return nil
}

// syncBuffer is written to by concurrent pipeline stages.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Reset()
}
