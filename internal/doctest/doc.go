// Package doctest runs interactive-session transcripts: prompt lines are
// executed in a [Session] and what they print is compared with the lines that
// follow them in the transcript.
//
// The transcript grammar, option directives, output checking and failure
// reports follow Python's doctest module, generalised over the prompt
// markers so the same runner serves any interpreter with a read-eval-print
// loop.
package doctest
