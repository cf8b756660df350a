// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// tailSize bounds the captured output attached to a BuildError.
const tailSize = 4 << 10

// BuildError reports an external build command that could not be started or
// exited with a non-zero status.
type BuildError struct {
	Cmd      string
	Args     []string
	Dir      string
	ExitCode int    // -1 if the process never ran
	Output   string // tail of the captured output, empty when streamed
	Err      error
}

func (e *BuildError) Error() string {
	cmdline := strings.Join(append([]string{e.Cmd}, e.Args...), " ")
	var msg string
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("%q in %s: %v", cmdline, e.Dir, e.Err)
	} else {
		msg = fmt.Sprintf("%q in %s exited with status %d", cmdline, e.Dir, e.ExitCode)
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory of the child. The caller's own working
	// directory is never changed.
	Dir string
	// Env overrides entries of the current environment.
	Env map[string]string
	// Stdout and Stderr receive the child's output. When both are nil the
	// output is captured and its tail is reported on failure.
	Stdout, Stderr io.Writer
}

// Run executes c and waits for it to finish.
func Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env)
	}

	var tail *tailBuffer
	if c.Stdout == nil && c.Stderr == nil {
		tail = &tailBuffer{max: tailSize}
		cmd.Stdout = tail
		cmd.Stderr = tail
	} else {
		cmd.Stdout = c.Stdout
		cmd.Stderr = c.Stderr
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	be := &BuildError{
		Cmd:      c.Name,
		Args:     c.Args,
		Dir:      c.Dir,
		ExitCode: -1,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		be.ExitCode = exitErr.ExitCode()
	}
	if tail != nil {
		be.Output = strings.TrimSpace(tail.String())
	}
	return be
}

// mergeEnv returns base with every key in overrides replaced or appended.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, len(base), len(base)+len(overrides))
	copy(out, base)
	idx := make(map[string]int, len(out))
	for i, kv := range out {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = i
		}
	}
	for k, v := range overrides {
		if i, ok := idx[k]; ok {
			out[i] = k + "=" + v
		} else {
			out = append(out, k+"="+v)
		}
	}
	return out
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
