// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"os"
	"path/filepath"
)

// Satisfied reports whether every artifact exists below installDir, and
// lists the missing ones in order. Symlinks are followed, so a dangling
// link counts as missing. An empty artifact list is never satisfied, so
// such a dependency is always rebuilt.
func Satisfied(installDir string, artifacts []string) (ok bool, missing []string) {
	if len(artifacts) == 0 {
		return false, nil
	}
	for _, a := range artifacts {
		if _, err := os.Stat(filepath.Join(installDir, filepath.FromSlash(a))); err != nil {
			missing = append(missing, a)
		}
	}
	return len(missing) == 0, missing
}
