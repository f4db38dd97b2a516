package shell

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// defaultInterpreter runs scripts without a shebang.
const defaultInterpreter = "sh"

// runConfig holds the execution knobs for a shell-backed call.
type runConfig struct {
	timeout time.Duration // 0 = no deadline
}

// RunOption is a functional option for Run.
type RunOption func(*runConfig)

// WithTimeout bounds the subprocess runtime. A zero or negative duration is
// ignored.
func WithTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// SplitShebang returns the interpreter line and the script body. A script
// whose first line starts with #! names its own interpreter and the body is
// everything after that line; otherwise the interpreter is sh and the body
// is the whole text.
func SplitShebang(script string) (interpreter, body string) {
	rest, ok := strings.CutPrefix(script, "#!")
	if !ok {
		return defaultInterpreter, script
	}
	line, remainder, _ := strings.Cut(rest, "\n")
	return strings.TrimSpace(line), remainder
}

// Run executes a script under its shebang interpreter (or sh) and captures
// stdout. env entries overlay the current process environment for the
// subprocess only.
func Run(ctx context.Context, script string, env map[string]string, opts ...RunOption) (string, error) {
	interpreter, body := SplitShebang(script)
	return run(ctx, interpreter, body, env, opts...)
}

// RunWithInterpreter executes a script under an explicitly chosen
// interpreter, ignoring any shebang.
func RunWithInterpreter(ctx context.Context, interpreter, script string, env map[string]string, opts ...RunOption) (string, error) {
	if interpreter == "" {
		interpreter = defaultInterpreter
	}
	return run(ctx, interpreter, script, env, opts...)
}

func run(ctx context.Context, interpreter, body string, env map[string]string, opts ...RunOption) (string, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	// An interpreter line like "/usr/bin/env bash" carries its own
	// arguments.
	words := strings.Fields(interpreter)
	if len(words) == 0 {
		words = []string{defaultInterpreter}
	}
	argv := append(append([]string{}, words[1:]...), "-c", body)

	cmd := exec.CommandContext(ctx, words[0], argv...)
	cmd.Env = os.Environ()
	for key, val := range env {
		// Appended entries win over earlier ones, so the declaration
		// overrides the inherited value on conflict.
		cmd.Env = append(cmd.Env, key+"="+val)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("shell: run", "interpreter", interpreter, "script", body)
	if err := cmd.Run(); err != nil {
		return "", &ShellError{Cmd: body, Stderr: stderr.String(), Err: err}
	}

	return strings.ToValidUTF8(stdout.String(), "�"), nil
}
