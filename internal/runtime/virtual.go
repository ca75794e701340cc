// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/tree"
	"github.com/invowk/tusks/pkg/types"
)

var (
	// ErrScriptSyntax is returned when an operation script does not parse.
	ErrScriptSyntax = errors.New("script syntax error")
	// ErrScriptFailed is returned when the interpreter fails for a reason
	// other than a non-zero exit status.
	ErrScriptFailed = errors.New("script execution failed")
)

type (
	// IOContext holds the standard streams of executed scripts.
	IOContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// VirtualRuntime executes operation scripts using mvdan/sh.
	VirtualRuntime struct {
		dir     string
		io      IOContext
		environ []string
		extra   map[string]string
	}

	// Option configures a VirtualRuntime.
	Option func(*VirtualRuntime)

	scriptHandler struct {
		rt   *VirtualRuntime
		name string
		prog *syntax.File
		err  error
	}
)

// WithDir sets the working directory of scripts.
func WithDir(dir string) Option {
	return func(r *VirtualRuntime) { r.dir = dir }
}

// WithIO sets the standard streams. Nil streams are left unchanged.
func WithIO(io IOContext) Option {
	return func(r *VirtualRuntime) {
		if io.Stdin != nil {
			r.io.Stdin = io.Stdin
		}
		if io.Stdout != nil {
			r.io.Stdout = io.Stdout
		}
		if io.Stderr != nil {
			r.io.Stderr = io.Stderr
		}
	}
}

// WithEnviron replaces the host environment scripts inherit.
func WithEnviron(environ []string) Option {
	return func(r *VirtualRuntime) { r.environ = environ }
}

// WithEnvVars adds variables on top of the host environment, e.g. the
// contents of --env-file files.
func WithEnvVars(vars map[string]string) Option {
	return func(r *VirtualRuntime) { maps.Copy(r.extra, vars) }
}

// NewVirtualRuntime creates a runtime bound to the process streams and
// environment.
func NewVirtualRuntime(opts ...Option) *VirtualRuntime {
	r := &VirtualRuntime{
		io:      IOContext{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
		environ: os.Environ(),
		extra:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parse checks the syntax of a script.
func Parse(script, name string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptSyntax, err)
	}
	return prog, nil
}

// ValidateScripts parses every operation script of a tree and reports each
// one that does not parse, located like any other tree problem.
func ValidateScripts(root *tree.Scope) tree.ValidationErrors {
	var errs tree.ValidationErrors
	var walk func(s *tree.Scope)
	walk = func(s *tree.Scope) {
		for _, op := range s.Operations {
			if op.Script == "" {
				continue
			}
			if _, err := Parse(op.Script, op.Name); err != nil {
				errs = append(errs, tree.ValidationError{
					Field:   tree.ForScope(s).Operation(op.Name).String(),
					Message: err.Error(),
				})
			}
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(root)
	return errs
}

// Factory binds every operation that carries a script. A script that does
// not parse is still bound; its handler reports the syntax error when run.
func (r *VirtualRuntime) Factory() dispatch.HandlerFactory {
	return func(path []string, op *tree.Operation) (dispatch.Handler, bool) {
		if op.Script == "" {
			return nil, false
		}
		name := dispatch.PathKey(path...)
		prog, err := Parse(op.Script, name)
		return &scriptHandler{rt: r, name: name, prog: prog, err: err}, true
	}
}

// Handle runs the script. A non-zero exit status is a result code, not an error.
func (h *scriptHandler) Handle(ctx context.Context, inv *dispatch.Invocation) (dispatch.Result, error) {
	if h.err != nil {
		return dispatch.Result{}, h.err
	}
	status, err := h.rt.run(ctx, h.prog, inv)
	if err != nil {
		return dispatch.Result{}, err
	}
	if status == types.ExitSuccess {
		return dispatch.Success(), nil
	}
	return dispatch.SuccessCode(status), nil
}

func (r *VirtualRuntime) run(ctx context.Context, prog *syntax.File, inv *dispatch.Invocation) (types.ExitCode, error) {
	env := EnvFromSlice(FilterInvocationEnvVars(r.environ))
	maps.Copy(env, r.extra)
	maps.Copy(env, InvocationEnv(inv))

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(EnvToSlice(env)...)),
		interp.StdIO(r.io.Stdin, r.io.Stdout, r.io.Stderr),
	}
	if r.dir != "" {
		opts = append(opts, interp.Dir(r.dir))
	}
	// "--" ends option parsing so values such as "-v" stay positional.
	params := PositionalParams(inv)
	opts = append(opts, interp.Params(append([]string{"--"}, params...)...))

	runner, err := interp.New(opts...)
	if err != nil {
		return types.ExitFailure, fmt.Errorf("failed to create interpreter: %w", err)
	}

	slog.Debug("running script", "dispatch_id", inv.ID, "operation", dispatch.PathKey(inv.Path...), "params", len(params))
	err = runner.Run(ctx, prog)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return types.FromStatus(int(exitStatus)), nil
		}
		return types.ExitFailure, fmt.Errorf("%w: %w", ErrScriptFailed, err)
	}
	return types.ExitSuccess, nil
}
