// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package project runs the commands that generate and compile the
// downstream project once its dependencies are staged.
package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/manifest"
)

// ErrUnsupportedPlatform is returned when the project lists platforms and
// the current one is not among them.
var ErrUnsupportedPlatform = errors.New("platform not supported by project")

// ExitError reports a project command that exited with a non-zero status.
type ExitError struct {
	Step string // "generate" or "compile"
	Cmd  []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %q exited with status %d", e.Step, strings.Join(e.Cmd, " "), e.Code)
}

// Options controls where and how the commands run.
type Options struct {
	Dir      string // working directory of both commands
	Platform env.Platform
	Stdout   io.Writer
	Stderr   io.Writer
}

// Run executes the generator and then the compiler of p. The compiler does
// not run when the generator fails.
func Run(ctx context.Context, p manifest.Project, opts Options) error {
	if p.Empty() {
		return nil
	}
	if !p.ForPlatform(opts.Platform) {
		log.Warn().Str("platform", opts.Platform.String()).Strs("platforms", p.Platforms).Msg("project not built on this platform")
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, opts.Platform)
	}
	if len(p.Generator) > 0 {
		log.Info().Strs("cmd", p.Generator).Msg("generating projects")
		if err := run(ctx, "generate", p.Generator, opts); err != nil {
			return err
		}
	}
	if len(p.Compiler) > 0 {
		log.Info().Strs("cmd", p.Compiler).Msg("compiling")
		if err := run(ctx, "compile", p.Compiler, opts); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, step string, argv []string, opts Options) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Step: step, Cmd: argv, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("%s: %w", step, err)
}
