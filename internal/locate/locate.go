// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package locate finds the build root inside an extracted source tree.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NotFoundError is returned when no directory under Dir contains Marker.
type NotFoundError struct {
	Dir    string
	Marker string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found under %s", e.Marker, e.Dir)
}

// FindRoot returns the first directory under searchDir, searchDir itself
// included, that directly contains an entry named marker.
//
// Directories are visited in pre-order with entries in lexical order, so
// for a given tree the result is always the same: a shallower match wins
// over a deeper one in the same subtree, and among siblings the
// lexically smaller name wins. Symlinked directories are not followed.
func FindRoot(searchDir, marker string) (string, error) {
	var found string
	err := filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, err := os.Lstat(filepath.Join(path, marker)); err == nil {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Dir: searchDir, Marker: marker}
		}
		return "", err
	}
	if found == "" {
		return "", &NotFoundError{Dir: searchDir, Marker: marker}
	}
	return found, nil
}

// FindPath returns the path of marker inside the directory FindRoot
// selects.
func FindPath(searchDir, marker string) (string, error) {
	root, err := FindRoot(searchDir, marker)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, marker), nil
}
