// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package build stages external dependencies: for each one it checks the
// install directory, downloads and extracts the archive, locates the build
// root and runs the native build, one dependency at a time.
package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"github.com/goplus/xstage/internal/archive"
	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/fetch"
	"github.com/goplus/xstage/internal/locate"
	"github.com/goplus/xstage/internal/manifest"
)

// ErrLocked is returned by Build when another process holds the workspace.
var ErrLocked = errors.New("workspace is locked by another xstage process")

// Fetcher returns the local path of the archive at url, downloading it
// into dir when needed.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (string, error)
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	Extract(archivePath, targetDir string) error
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(archivePath, targetDir string) error

func (f ExtractorFunc) Extract(archivePath, targetDir string) error {
	return f(archivePath, targetDir)
}

// Result reports what Stage did for one dependency.
type Result struct {
	Name string
	// Skipped is set when the dependency does not apply to the platform.
	Skipped bool
	// Satisfied is set when every artifact was already installed and
	// nothing was done.
	Satisfied bool
	// Missing lists the artifacts absent before the build.
	Missing    []string
	Archive    string
	SourceRoot string
	InstallDir string
}

// Builder runs the staging pipeline inside a workspace layout.
type Builder struct {
	layout    *env.Layout
	fetcher   Fetcher
	extractor Extractor
	invoker   Invoker
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

func WithFetcher(f Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

func WithExtractor(e Extractor) Option {
	return func(b *Builder) { b.extractor = e }
}

func WithInvoker(i Invoker) Option {
	return func(b *Builder) { b.invoker = i }
}

// New returns a Builder using the network fetcher, the archive package and
// the native build tools unless overridden.
func New(layout *env.Layout, opts ...Option) *Builder {
	b := &Builder{
		layout:    layout,
		fetcher:   fetch.New(),
		extractor: ExtractorFunc(archive.Extract),
		invoker:   NativeInvoker{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build stages deps in order. Dependencies that exclude the layout's
// platform are skipped. It stops at the first failure, returning the
// results gathered so far together with a *StageError.
func (b *Builder) Build(ctx context.Context, deps []manifest.Dependency) ([]*Result, error) {
	lock, err := b.layout.LockFile()
	if err != nil {
		return nil, err
	}
	unlock, err := lockPath(lock)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	defer unlock()

	platform := b.layout.Platform()
	results := make([]*Result, 0, len(deps))
	for _, dep := range deps {
		if !dep.ForPlatform(platform) {
			log.Info().Str("dep", dep.Name).Str("platform", platform.String()).Msg("not built on this platform")
			results = append(results, &Result{Name: dep.Name, Skipped: true})
			continue
		}
		res, err := b.Stage(ctx, dep)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Stage runs the pipeline for a single dependency regardless of its
// platform filter.
func (b *Builder) Stage(ctx context.Context, dep manifest.Dependency) (*Result, error) {
	assert.NotEmpty(ctx, dep.Name, "dependency name must be set")
	logger := log.With().Str("dep", dep.Name).Logger()
	res := &Result{Name: dep.Name}
	fail := func(stage Stage, err error) (*Result, error) {
		return res, &StageError{Dep: dep.Name, Stage: stage, Err: err}
	}

	installDir, err := b.layout.InstallDir(dep.Name)
	if err != nil {
		return fail(StagePrepare, err)
	}
	res.InstallDir = installDir

	ok, missing := Satisfied(installDir, dep.Artifacts)
	if ok {
		logger.Info().Str("stage", string(StageCheck)).Str("path", installDir).Msg("already staged")
		res.Satisfied = true
		return res, nil
	}
	res.Missing = missing
	for _, m := range missing {
		logger.Info().Str("stage", string(StageCheck)).Str("artifact", m).Str("path", installDir).Msg("required file missing")
	}
	if len(dep.Artifacts) == 0 {
		logger.Warn().Msg("no artifacts declared, rebuilding")
	}

	downloads, err := b.layout.DownloadsDir()
	if err != nil {
		return fail(StagePrepare, err)
	}
	logger.Info().Str("stage", string(StageFetch)).Str("url", dep.URL).Msg("fetching")
	archivePath, err := b.fetcher.Fetch(ctx, dep.URL, downloads)
	if err != nil {
		return fail(StageFetch, err)
	}
	res.Archive = archivePath

	sourceDir, err := b.layout.SourceDir(dep.Name)
	if err != nil {
		return fail(StagePrepare, err)
	}
	logger.Info().Str("stage", string(StageExtract)).Str("path", sourceDir).Msg("unpacking")
	if err := b.extractor.Extract(archivePath, sourceDir); err != nil {
		return fail(StageExtract, err)
	}

	marker := dep.Marker
	if marker == "" {
		marker = dep.Build.DefaultMarker()
	}
	root, err := locate.FindRoot(sourceDir, marker)
	if err != nil {
		return fail(StageLocate, err)
	}
	res.SourceRoot = root
	logger.Info().Str("stage", string(StageLocate)).Str("path", root).Msg("found source")

	buildDir, err := b.layout.BuildDir(dep.Name)
	if err != nil {
		return fail(StagePrepare, err)
	}
	vars := manifest.Vars{
		Name:       dep.Name,
		Platform:   b.layout.Platform().String(),
		InstallDir: installDir,
		SourceDir:  sourceDir,
		SourceRoot: root,
		BuildDir:   buildDir,
	}
	job := Job{
		Dep:        dep.Expand(vars),
		SourceRoot: root,
		BuildDir:   buildDir,
		InstallDir: installDir,
	}
	job.Dep.Marker = marker
	logger.Info().Str("stage", string(StageBuild)).Str("build", string(dep.Build)).Str("path", buildDir).
		Strs("params", job.Dep.Params).Msg("building")
	if err := b.invoker.Invoke(ctx, job); err != nil {
		return fail(StageBuild, err)
	}

	rec := &Record{
		Name:      dep.Name,
		URL:       dep.URL,
		Build:     string(dep.Build),
		Platform:  vars.Platform,
		Params:    job.Dep.Params,
		BuildTime: b.now(),
	}
	if err := WriteRecord(buildDir, rec); err != nil {
		return fail(StageRecord, err)
	}
	if ok, missing := Satisfied(installDir, dep.Artifacts); !ok && len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("build finished but artifacts are still missing")
	}
	logger.Info().Str("path", installDir).Msg("staged")
	return res, nil
}
