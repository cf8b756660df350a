// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/goplus/xstage/internal/manifest"
	"github.com/goplus/xstage/pkgs/buildsys/autotools"
	"github.com/goplus/xstage/pkgs/buildsys/cmake"
	"github.com/goplus/xstage/pkgs/buildsys/copydir"
)

// Job is one located source tree ready to be built. Dep has its params,
// defines and env already expanded.
type Job struct {
	Dep        manifest.Dependency
	SourceRoot string
	BuildDir   string
	InstallDir string
}

// Invoker runs the native build protocol of a job.
type Invoker interface {
	Invoke(ctx context.Context, job Job) error
}

// NativeInvoker drives configure, cmake and make, or copies headers, in
// the job's directories.
type NativeInvoker struct {
	// Stdout and Stderr receive build output. When both are nil the output
	// is captured and its tail attached to a failure.
	Stdout, Stderr io.Writer
}

func (n NativeInvoker) Invoke(ctx context.Context, job Job) error {
	dep := job.Dep
	switch dep.Build {
	case manifest.Autotools:
		opts := []autotools.Option{autotools.WithEnv(dep.Env)}
		if n.Stdout != nil || n.Stderr != nil {
			opts = append(opts, autotools.WithOutput(n.Stdout, n.Stderr))
		}
		return autotools.Build(ctx, job.SourceRoot, job.BuildDir, job.InstallDir, dep.Params, opts...)
	case manifest.CMake:
		opts := []cmake.Option{cmake.WithEnv(dep.Env), cmake.WithDefines(dep.Defines)}
		if n.Stdout != nil || n.Stderr != nil {
			opts = append(opts, cmake.WithOutput(n.Stdout, n.Stderr))
		}
		return cmake.Build(ctx, job.SourceRoot, job.BuildDir, job.InstallDir, dep.Params, opts...)
	case manifest.Copy:
		_, err := copydir.Copy(filepath.Join(job.SourceRoot, dep.Marker), filepath.Join(job.InstallDir, filepath.FromSlash(dep.CopyTo)))
		return err
	}
	return fmt.Errorf("unknown build system %q", dep.Build)
}
