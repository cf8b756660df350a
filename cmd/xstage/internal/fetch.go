// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch URL",
		Short: "Download an archive into the workspace download cache",
		Long: `Fetch downloads URL into the Downloads directory of the workspace and
prints the local path. An archive that is already cached is not downloaded
again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := a.layout()
			if err != nil {
				return err
			}
			dir, err := layout.DownloadsDir()
			if err != nil {
				return err
			}
			path, err := a.fetcher().Fetch(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
