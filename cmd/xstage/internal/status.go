// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goplus/xstage/internal/build"
	"github.com/goplus/xstage/internal/manifest"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which dependencies are installed",
		Long: `Status checks the install directory of every dependency in the manifest
against its artifact list. It never downloads or builds anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStatus(cmd)
		},
	}
}

func (a *app) runStatus(cmd *cobra.Command) error {
	m, err := manifest.Load(a.cfg.Manifest)
	if err != nil {
		return err
	}
	layout, err := a.layout()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, dep := range m.Dependencies {
		if !dep.ForPlatform(layout.Platform()) {
			fmt.Fprintf(tw, "%s\tskipped\t\n", dep.Name)
			continue
		}
		paths := layout.Paths(dep.Name)
		ok, missing := build.Satisfied(paths.Install, dep.Artifacts)
		state := "installed"
		if !ok {
			state = "missing " + strings.Join(missing, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", dep.Name, state, builtAt(paths.Build))
	}
	return nil
}

func builtAt(buildDir string) string {
	r, err := build.ReadRecord(buildDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug().Err(err).Str("dir", buildDir).Msg("unreadable build record")
		}
		return ""
	}
	return "built " + r.BuildTime.Local().Format(time.DateTime)
}
