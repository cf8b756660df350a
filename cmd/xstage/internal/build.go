// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goplus/xstage/internal/build"
	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/manifest"
	"github.com/goplus/xstage/internal/project"
)

func newBuildCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Stage all dependencies, then generate and compile the project",
		Long: `Build stages every dependency of the manifest that applies to the current
platform, in manifest order, and then runs the project's generator and
compiler commands from the workspace root.

Dependencies whose artifacts are all present are not rebuilt. The first
failure stops the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd)
		},
	}
}

func (a *app) runBuild(cmd *cobra.Command) error {
	m, err := manifest.Load(a.cfg.Manifest)
	if err != nil {
		return err
	}
	layout, err := a.layout()
	if err != nil {
		return err
	}
	results, err := a.builder(cmd, layout).Build(cmd.Context(), m.Dependencies)
	printResults(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}
	if m.Project.Empty() {
		log.Info().Msg("no project commands configured")
		return nil
	}
	return project.Run(cmd.Context(), m.Project, project.Options{
		Dir:      layout.Root(),
		Platform: layout.Platform(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
}

func (a *app) builder(cmd *cobra.Command, layout *env.Layout) *build.Builder {
	invoker := build.NativeInvoker{}
	if a.cfg.Verbose {
		invoker.Stdout = cmd.OutOrStdout()
		invoker.Stderr = cmd.ErrOrStderr()
	}
	return build.New(layout, build.WithFetcher(a.fetcher()), build.WithInvoker(invoker))
}

func printResults(w io.Writer, results []*build.Result) {
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, resultState(r), r.InstallDir)
	}
	tw.Flush()
}

func resultState(r *build.Result) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Satisfied:
		return "up-to-date"
	default:
		return "built"
	}
}
