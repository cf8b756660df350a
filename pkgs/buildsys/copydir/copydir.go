// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package copydir installs header-only packages by copying a source
// directory into place.
package copydir

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// skipNames are operating-system metadata entries that never belong in an
// install tree.
var skipNames = map[string]bool{
	".DS_Store":       true,
	"Thumbs.db":       true,
	"desktop.ini":     true,
	"__MACOSX":        true,
	".Spotlight-V100": true,
	".Trashes":        true,
	".fseventsd":      true,
}

// Skip reports whether an entry called name is OS metadata.
func Skip(name string) bool {
	return skipNames[name] || strings.HasPrefix(name, "._")
}

// Copy copies sourceDir recursively to destDir/<base of sourceDir> and
// returns that destination. Existing files are overwritten.
func Copy(sourceDir, destDir string) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("copy %s: not a directory", sourceDir)
	}
	target := filepath.Join(destDir, filepath.Base(sourceDir))
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != sourceDir && Skip(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(target, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return copySymlink(path, dst)
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(dst, fi.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, dst, fi.Mode().Perm())
		}
		// sockets, devices and pipes are not copied
		return nil
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

func copySymlink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(link, dst)
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// a previous copy may have left a read-only file
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, perm)
}
