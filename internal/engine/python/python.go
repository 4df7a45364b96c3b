// Package python runs examples in a Python interpreter. One interpreter
// process serves every session of an engine; each session is a separate
// global namespace inside it.
package python

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"github.com/google/shlex"
)

//go:embed driver.py
var driver string

// DefaultCommand starts the interpreter when no other command is configured.
const DefaultCommand = "python3"

var (
	// ErrNoInterpreter is returned when the interpreter command cannot be found.
	ErrNoInterpreter = errors.New("python interpreter not available")
	// ErrInterpreterExited is returned when the interpreter stops answering.
	ErrInterpreterExited = errors.New("python interpreter exited")
)

// Engine starts the interpreter on the first session and keeps it until Close.
type Engine struct {
	command []string
	stderr  io.Writer
	proc    *process
}

// New returns an engine for command, which is split with shell quoting rules,
// e.g. "uv run python". Interpreter stderr goes to stderr.
func New(command string, stderr io.Writer) (*Engine, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("python command %q: %w", command, err)
	}

	if len(args) == 0 {
		args = []string{DefaultCommand}
	}

	if stderr == nil {
		stderr = io.Discard
	}

	return &Engine{command: args, stderr: stderr}, nil
}

func (e *Engine) Name() string { return "python" }

func (e *Engine) Syntax() doctest.Syntax { return doctest.PythonSyntax }

// NewSession returns a session bound to a fresh namespace holding only the
// "re" module.
func (e *Engine) NewSession(ctx context.Context) (doctest.Session, error) {
	if e.proc == nil || e.proc.broken != nil {
		if e.proc != nil {
			e.proc.close()
		}

		proc, err := start(e.command, e.stderr)
		if err != nil {
			return nil, err
		}

		e.proc = proc
	}

	resp, err := e.proc.call(ctx, request{Op: "new"})
	if err != nil {
		return nil, err
	}

	return &session{proc: e.proc, id: resp.ID}, nil
}

// Close stops the interpreter.
func (e *Engine) Close() error {
	if e.proc == nil {
		return nil
	}

	err := e.proc.close()
	e.proc = nil

	return err
}

type request struct {
	Op     string `json:"op"`
	ID     int    `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
	Name   string `json:"name,omitempty"`
}

type response struct {
	ID        int    `json:"id"`
	Output    string `json:"output"`
	Exception string `json:"exception"`
	Traceback string `json:"traceback"`
	Error     string `json:"error"`
}

type process struct {
	cmd    *exec.Cmd
	reqW   *os.File
	respR  *os.File
	enc    *json.Encoder
	dec    *json.Decoder
	broken error
}

func start(command []string, stderr io.Writer) (*process, error) {
	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoInterpreter, err)
	}

	reqR, reqW, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	respR, respW, err := os.Pipe()
	if err != nil {
		reqR.Close()
		reqW.Close()

		return nil, err
	}

	args := append(append([]string{}, command[1:]...), "-u", "-c", driver)

	cmd := exec.Command(path, args...)
	cmd.Stderr = stderr
	cmd.ExtraFiles = []*os.File{reqR, respW} // fd 3 and fd 4 in the driver

	slog.Debug("starting python interpreter", "command", command)

	err = cmd.Start()

	reqR.Close()
	respW.Close()

	if err != nil {
		reqW.Close()
		respR.Close()

		return nil, fmt.Errorf("%w: %w", ErrNoInterpreter, err)
	}

	return &process{
		cmd:   cmd,
		reqW:  reqW,
		respR: respR,
		enc:   json.NewEncoder(reqW),
		dec:   json.NewDecoder(respR),
	}, nil
}

func (p *process) call(ctx context.Context, req request) (response, error) {
	var resp response

	if p.broken != nil {
		return resp, p.broken
	}

	stop := context.AfterFunc(ctx, func() {
		_ = p.cmd.Process.Kill()
	})
	defer stop()

	err := p.enc.Encode(req)
	if err == nil {
		err = p.dec.Decode(&resp)
	}

	if err != nil {
		if ctx.Err() != nil {
			p.broken = ctx.Err()
		} else {
			p.broken = fmt.Errorf("%w: %w", ErrInterpreterExited, err)
		}

		return resp, p.broken
	}

	if len(resp.Error) > 0 {
		return resp, fmt.Errorf("python driver: %s", resp.Error)
	}

	return resp, nil
}

func (p *process) close() error {
	p.reqW.Close()

	err := p.cmd.Wait()

	p.respR.Close()

	if p.broken != nil {
		return nil
	}

	p.broken = ErrInterpreterExited

	return err
}

type session struct {
	proc *process
	id   int
}

func (s *session) Exec(ctx context.Context, source, name string) (doctest.Outcome, error) {
	resp, err := s.proc.call(ctx, request{Op: "exec", ID: s.id, Source: source, Name: name})
	if err != nil {
		return doctest.Outcome{}, err
	}

	return doctest.Outcome{Output: resp.Output, Exception: resp.Exception, Traceback: resp.Traceback}, nil
}

func (s *session) Close() error {
	if s.proc.broken != nil {
		return nil
	}

	_, err := s.proc.call(context.Background(), request{Op: "drop", ID: s.id})

	return err
}
