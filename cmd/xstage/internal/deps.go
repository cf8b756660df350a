// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"github.com/spf13/cobra"

	"github.com/goplus/xstage/internal/manifest"
)

func newDepsCommand(a *app) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Stage dependencies without building the project",
		Long: `Deps runs the staging pipeline for the dependencies of the manifest.

Use --only to restrict the run to named dependencies. They are still staged
in manifest order.`,
		Example: `  xstage deps
  xstage deps --only SDL2 --only glm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDeps(cmd, only)
		},
	}
	cmd.Flags().StringArrayVar(&only, "only", nil, "Stage only the named dependency (repeatable)")
	return cmd
}

func (a *app) runDeps(cmd *cobra.Command, only []string) error {
	m, err := manifest.Load(a.cfg.Manifest)
	if err != nil {
		return err
	}
	deps, err := m.Select(only)
	if err != nil {
		return err
	}
	layout, err := a.layout()
	if err != nil {
		return err
	}
	results, err := a.builder(cmd, layout).Build(cmd.Context(), deps)
	printResults(cmd.OutOrStdout(), results)
	return err
}
