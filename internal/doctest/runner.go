package doctest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Divider separates failure reports.
var Divider = strings.Repeat("*", 70)

// Results counts examples.
type Results struct {
	Failed    int
	Attempted int
}

// Runner executes tests and accumulates their results by test name. The
// totals are never reset; a single Runner is meant to serve a whole run.
type Runner struct {
	out     io.Writer
	checker Checker
	flags   Flag
	color   bool

	tallies map[string]*Results
}

// RunnerOption configures a [Runner].
type RunnerOption func(*Runner)

// WithFlags sets the flags applied to every example before its own directives.
func WithFlags(flags Flag) RunnerOption {
	return func(r *Runner) {
		r.flags = flags
	}
}

// WithColor highlights failure dividers and the summary line.
func WithColor(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.color = enabled
	}
}

// NewRunner returns a Runner writing its reports to out.
func NewRunner(out io.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{out: out, tallies: make(map[string]*Results)}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes the examples of test in order within session and reports every
// failure. The returned error is only set when the session breaks; examples
// attempted before that are still counted.
func (r *Runner) Run(ctx context.Context, test *Test, session Session) (Results, error) {
	var res Results

	defer func() { r.record(test.Name, res) }()

	for i, example := range test.Examples {
		flags := r.flags

		for flag, on := range example.Options {
			if on {
				flags |= flag
			} else {
				flags &^= flag
			}
		}

		if flags&Skip != 0 {
			continue
		}

		res.Attempted++

		outcome, err := session.Exec(ctx, example.Source, fmt.Sprintf("<doctest %s[%d]>", test.Name, i))
		if err != nil {
			return res, fmt.Errorf("%s: example at line %d: %w", test.Name, r.lineno(test, example), err)
		}

		w := r.out
		if flags&ReportOnlyFirstFailure != 0 && res.Failed > 0 {
			w = io.Discard
		}

		if !r.evaluate(w, test, example, outcome, flags) {
			res.Failed++
		}

		if res.Failed > 0 && flags&FailFast != 0 {
			break
		}
	}

	return res, nil
}

// Invalid records a test that could not be parsed as one failed example.
func (r *Runner) Invalid(name, filename string, lineno int, err error) {
	fmt.Fprintf(r.out, "%s\nFile \"%s\", line %d, in %s\nInvalid example:\n%s",
		r.paint(Divider), filename, lineno, name, indent(err.Error()+"\n"))

	r.record(name, Results{Failed: 1, Attempted: 1})
}

// Results returns the totals accumulated so far.
func (r *Runner) Results() Results {
	var total Results

	for _, tally := range r.tallies {
		total.Failed += tally.Failed
		total.Attempted += tally.Attempted
	}

	return total
}

// Summarize prints which tests had failures, if any, and returns the totals.
func (r *Runner) Summarize() Results {
	var failed []string

	for name, tally := range r.tallies {
		if tally.Failed > 0 {
			failed = append(failed, name)
		}
	}

	total := r.Results()

	if len(failed) == 0 {
		return total
	}

	sort.Strings(failed)

	fmt.Fprintln(r.out, r.paint(Divider))
	fmt.Fprintln(r.out, len(failed), "items had failures:")

	for _, name := range failed {
		tally := r.tallies[name]
		fmt.Fprintf(r.out, " %3d of %3d in %s\n", tally.Failed, tally.Attempted, name)
	}

	fmt.Fprintln(r.out, r.paint(fmt.Sprintf("***Test Failed*** %d failures.", total.Failed)))

	return total
}

// evaluate checks outcome against example and reports a failure to w.
func (r *Runner) evaluate(w io.Writer, test *Test, example *Example, outcome Outcome, flags Flag) bool {
	got := outcome.Output

	if len(outcome.Exception) == 0 {
		if r.checker.Match(example.Want, got, flags) {
			return true
		}

		r.reportFailure(w, test, example, got, flags)

		return false
	}

	traceback := outcome.Traceback
	if len(traceback) == 0 {
		traceback = outcome.Exception
	}

	if len(example.ExcMsg) == 0 {
		fmt.Fprint(w, r.header(test, example)+"Exception raised:\n"+indent(traceback))

		return false
	}

	if r.checker.Match(example.ExcMsg, outcome.Exception, flags) {
		return true
	}

	if flags&IgnoreExceptionDetail != 0 &&
		r.checker.Match(stripExceptionDetails(example.ExcMsg), stripExceptionDetails(outcome.Exception), flags) {
		return true
	}

	r.reportFailure(w, test, example, got+traceback, flags)

	return false
}

func (r *Runner) reportFailure(w io.Writer, test *Test, example *Example, got string, flags Flag) {
	fmt.Fprint(w, r.header(test, example)+r.checker.Difference(example, got, flags))
}

func (r *Runner) header(test *Test, example *Example) string {
	var b strings.Builder

	b.WriteString(r.paint(Divider))
	b.WriteString("\n")

	if len(test.Filename) > 0 {
		fmt.Fprintf(&b, "File \"%s\", line %d, in %s\n", test.Filename, r.lineno(test, example), test.Name)
	} else {
		fmt.Fprintf(&b, "Line %d, in %s\n", example.Lineno+1, test.Name)
	}

	b.WriteString("Failed example:\n")
	b.WriteString(indent(example.Source))

	return b.String()
}

// lineno maps an example to its line in the test's file. Test.Lineno already
// names the first line of Text, so unlike Python's doctest no 1 is added.
func (r *Runner) lineno(test *Test, example *Example) int {
	if test.Lineno > 0 {
		return test.Lineno + example.Lineno
	}

	return example.Lineno + 1
}

func (r *Runner) record(name string, res Results) {
	tally, ok := r.tallies[name]
	if !ok {
		tally = &Results{}
		r.tallies[name] = tally
	}

	tally.Failed += res.Failed
	tally.Attempted += res.Attempted
}

var failColor = func() *color.Color {
	c := color.New(color.FgRed, color.Bold)
	c.EnableColor()

	return c
}()

func (r *Runner) paint(s string) string {
	if !r.color {
		return s
	}

	return failColor.Sprint(s)
}
