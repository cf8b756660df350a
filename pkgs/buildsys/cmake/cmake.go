// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmake wraps the cmake && make install workflow.
package cmake

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/xstage/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives a CMake build of one source tree using the Makefile
// generator.
type CMake struct {
	sourceDir  string
	buildDir   string
	installDir string
	buildType  string
	defines    map[string]defineValue
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// Option customises a CMake.
type Option func(*CMake)

// WithOutput streams command output instead of capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CMake) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithEnv adds environment overrides for every spawned command.
func WithEnv(env map[string]string) Option {
	return func(c *CMake) {
		for k, v := range env {
			c.Env(k, v)
		}
	}
}

// WithDefines adds -D<key>=<value> cache entries.
func WithDefines(defines map[string]string) Option {
	return func(c *CMake) {
		for k, v := range defines {
			c.Define(k, v)
		}
	}
}

// New returns a CMake for the tree whose top-level CMakeLists.txt lives in
// sourceDir. Configure and install run in buildDir.
func New(sourceDir, buildDir, installDir string, opts ...Option) *CMake {
	c := &CMake{
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    map[string]defineValue{},
		env:        map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Define adds an untyped -D<key>=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Configure runs cmake <defines> args... <sourceDir> in the build directory.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	dir, err := c.workDir()
	if err != nil {
		return err
	}
	src, err := filepath.Abs(c.sourceDir)
	if err != nil {
		return err
	}
	cmakeArgs := c.configureArgs(args)
	cmakeArgs = append(cmakeArgs, src)
	return c.run(ctx, "cmake", cmakeArgs, dir)
}

func (c *CMake) configureArgs(args []string) []string {
	defs := make(map[string]defineValue, len(c.defines)+2)
	for k, v := range c.defines {
		defs[k] = v
	}
	if c.installDir != "" && !definesKey(args, "CMAKE_INSTALL_PREFIX") {
		if _, ok := defs["CMAKE_INSTALL_PREFIX"]; !ok {
			defs["CMAKE_INSTALL_PREFIX"] = defineValue{value: c.installDir, typeName: "PATH"}
		}
	}
	if c.buildType != "" {
		defs["CMAKE_BUILD_TYPE"] = defineValue{value: c.buildType, typeName: "STRING"}
	}
	out := definesArgs(defs)
	return append(out, args...)
}

// definesKey reports whether args carry a -D definition of key.
func definesKey(args []string, key string) bool {
	for _, arg := range args {
		name, ok := strings.CutPrefix(arg, "-D")
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		name, _, _ = strings.Cut(name, ":")
		if name == key {
			return true
		}
	}
	return false
}

// Install runs make install in the build directory.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	dir, err := c.workDir()
	if err != nil {
		return err
	}
	return c.run(ctx, "make", append([]string{"install"}, args...), dir)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) workDir() (string, error) {
	dir := c.buildDir
	if dir == "" {
		dir = "build"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (c *CMake) run(ctx context.Context, name string, args []string, dir string) error {
	return buildsys.Run(ctx, buildsys.Command{
		Name:   name,
		Args:   args,
		Dir:    dir,
		Env:    c.env,
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
}

func definesArgs(defs map[string]defineValue) []string {
	if len(defs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := defs[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// Build configures the tree at sourceDir with params and installs it.
func Build(ctx context.Context, sourceDir, buildDir, installDir string, params []string, opts ...Option) error {
	return buildsys.Build(ctx, New(sourceDir, buildDir, installDir, opts...), params...)
}
