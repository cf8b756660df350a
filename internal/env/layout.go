// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace directory layout:
//
//	root/
//	  External/<name>/<platform>/            # install dir, what consumers link against
//	  ExternalSource/<name>/                 # extracted sources, shared by all platforms
//	  Local/ExternalBuild/<name>/<platform>/ # out-of-tree build dir
//	  Downloads/                             # cached archives
const (
	externalDir       = "External"
	externalSourceDir = "ExternalSource"
	externalBuildDir  = "Local/ExternalBuild"
	downloadsDir      = "Downloads"
	localDir          = "Local"
	lockFile          = ".xstage.lock"
)

const dirPerm = 0o755

// DirError reports a staging directory that could not be created.
type DirError struct {
	Path string
	Err  error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("create directory %s: %v", e.Path, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// Layout derives the staging directories of a workspace for one platform.
// Every accessor creates the directory it returns.
type Layout struct {
	root     string
	platform Platform
}

// NewLayout returns the layout rooted at root. A relative root is resolved
// against the current working directory once, here.
func NewLayout(root string, platform Platform) (*Layout, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DirError{Path: root, Err: err}
	}
	return &Layout{root: abs, platform: platform}, nil
}

// Root returns the absolute workspace root.
func (l *Layout) Root() string { return l.root }

// Platform returns the platform the install and build dirs are partitioned by.
func (l *Layout) Platform() Platform { return l.platform }

// Paths are the directories of one dependency.
type Paths struct {
	Install string
	Source  string
	Build   string
}

// Paths computes the directories of the dependency name without creating
// them.
func (l *Layout) Paths(name string) Paths {
	return Paths{
		Install: filepath.Join(l.root, externalDir, name, string(l.platform)),
		Source:  filepath.Join(l.root, externalSourceDir, name),
		Build:   filepath.Join(l.root, filepath.FromSlash(externalBuildDir), name, string(l.platform)),
	}
}

// InstallDir returns External/<name>/<platform>.
func (l *Layout) InstallDir(name string) (string, error) {
	return ensureDir(l.Paths(name).Install)
}

// SourceDir returns ExternalSource/<name>.
func (l *Layout) SourceDir(name string) (string, error) {
	return ensureDir(l.Paths(name).Source)
}

// BuildDir returns Local/ExternalBuild/<name>/<platform>.
func (l *Layout) BuildDir(name string) (string, error) {
	return ensureDir(l.Paths(name).Build)
}

// DownloadsDir returns the archive cache directory.
func (l *Layout) DownloadsDir() (string, error) {
	return ensureDir(filepath.Join(l.root, downloadsDir))
}

// LockFile returns the path of the file guarding the workspace against
// concurrent runs. Its directory is created.
func (l *Layout) LockFile() (string, error) {
	dir, err := ensureDir(filepath.Join(l.root, localDir))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, lockFile), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", &DirError{Path: dir, Err: err}
	}
	return dir, nil
}
