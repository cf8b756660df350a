// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package autotools wraps the classic configure && make install workflow.
package autotools

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/xstage/pkgs/buildsys"
)

// AutoTools drives an Autotools-style build of one source tree.
type AutoTools struct {
	sourceDir  string
	buildDir   string
	installDir string
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// Option customises an AutoTools.
type Option func(*AutoTools)

// WithOutput streams the output of every spawned command to stdout and
// stderr instead of capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *AutoTools) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithEnv adds environment overrides for every spawned command.
func WithEnv(env map[string]string) Option {
	return func(a *AutoTools) {
		for k, v := range env {
			a.Env(k, v)
		}
	}
}

// New returns an AutoTools for the tree rooted at sourceDir (the directory
// holding configure). Commands run in buildDir; when installDir is set it is
// passed to configure as --prefix.
func New(sourceDir, buildDir, installDir string, opts ...Option) *AutoTools {
	a := &AutoTools{
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		env:        map[string]string{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Env sets key=value for every command spawned later. The current process
// environment is left alone.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// Configure runs <sourceDir>/configure in the build directory.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	dir, err := a.workDir()
	if err != nil {
		return err
	}
	exe, err := filepath.Abs(filepath.Join(a.sourceDir, "configure"))
	if err != nil {
		return err
	}
	return a.run(ctx, exe, a.configureArgs(args), dir)
}

// configureArgs prepends --prefix unless the caller already supplied one.
func (a *AutoTools) configureArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	if a.installDir != "" && !hasPrefixArg(args) {
		out = append(out, "--prefix="+a.installDir)
	}
	return append(out, args...)
}

func hasPrefixArg(args []string) bool {
	for _, arg := range args {
		if arg == "--prefix" || strings.HasPrefix(arg, "--prefix=") {
			return true
		}
	}
	return false
}

// Install runs make install (plus any extra make arguments) in the build
// directory.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	dir, err := a.workDir()
	if err != nil {
		return err
	}
	return a.run(ctx, "make", append([]string{"install"}, args...), dir)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.buildDir
}

func (a *AutoTools) workDir() (string, error) {
	dir := a.buildDir
	if dir == "" {
		dir = a.sourceDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (a *AutoTools) run(ctx context.Context, name string, args []string, dir string) error {
	return buildsys.Run(ctx, buildsys.Command{
		Name:   name,
		Args:   args,
		Dir:    dir,
		Env:    a.env,
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
}

// Build configures the tree at sourceDir with params and installs it.
func Build(ctx context.Context, sourceDir, buildDir, installDir string, params []string, opts ...Option) error {
	return buildsys.Build(ctx, New(sourceDir, buildDir, installDir, opts...), params...)
}
