// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive unpacks downloaded source archives.
//
// The format is chosen from the file extension alone:
//
//	.tar               plain tar
//	.gz, .tgz          gzip-compressed tar
//	.bz2, .tbz2        bzip2-compressed tar
//	.xz, .txz          xz-compressed tar
//	.zip               zip
//
// Every member is written below the target directory; members whose path
// would land outside it are rejected.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Format identifies an archive container and its compression.
type Format int

const (
	Tar Format = iota + 1
	TarGzip
	TarBzip2
	TarXz
	Zip
)

var formatNames = map[Format]string{
	Tar:      "tar",
	TarGzip:  "tar.gz",
	TarBzip2: "tar.bz2",
	TarXz:    "tar.xz",
	Zip:      "zip",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsTar reports whether f is one of the tar-based formats.
func (f Format) IsTar() bool {
	return f >= Tar && f <= TarXz
}

var extFormats = map[string]Format{
	".tar":  Tar,
	".gz":   TarGzip,
	".tgz":  TarGzip,
	".bz2":  TarBzip2,
	".tbz2": TarBzip2,
	".tbz":  TarBzip2,
	".xz":   TarXz,
	".txz":  TarXz,
	".zip":  Zip,
}

// UnsupportedFormatError is returned for an archive whose extension maps to
// no known format.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported archive format: %s has no extension", e.Path)
	}
	return fmt.Sprintf("unsupported archive format %q: %s", e.Ext, e.Path)
}

// ExtractionError reports a corrupt archive or a failure writing one of its
// members. Files written before the failure are left in place.
type ExtractionError struct {
	Archive string
	Member  string // empty when the archive itself could not be read
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Archive, e.Member, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrUnsafePath marks a member whose path or link target escapes the
// target directory.
var ErrUnsafePath = errors.New("path escapes target directory")

// FormatOf returns the archive format implied by path's extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return 0, &UnsupportedFormatError{Path: path, Ext: ext}
}

// Extract unpacks archivePath into targetDir, creating targetDir when
// needed. An unsupported format is reported before anything is written.
func Extract(archivePath, targetDir string) error {
	format, err := FormatOf(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}
	root, err := filepath.Abs(targetDir)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}

	log.Debug().Str("archive", archivePath).Str("format", format.String()).Str("dir", root).Msg("extracting")
	var n int
	if format == Zip {
		n, err = extractZip(archivePath, root)
	} else {
		n, err = extractTar(archivePath, format, root)
	}
	if err != nil {
		return err
	}
	log.Debug().Str("archive", archivePath).Int("members", n).Msg("extracted")
	return nil
}

// safeJoin resolves the archive member name below root.
func safeJoin(root, name string) (string, error) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" || strings.HasPrefix(name, string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	p := filepath.Join(root, name)
	if !within(root, p) {
		return "", ErrUnsafePath
	}
	return p, nil
}

// checkLink rejects a symlink at dst whose target leaves root. The target
// may only climb with leading ".." elements, which are resolved against the
// real parent of dst; every later element descends. The parent of dst must
// exist.
func checkLink(root, dst, target string) error {
	target = filepath.FromSlash(target)
	if target == "" || filepath.IsAbs(target) || filepath.VolumeName(target) != "" {
		return ErrUnsafePath
	}
	descended := false
	for _, elem := range strings.Split(target, string(filepath.Separator)) {
		switch elem {
		case "", ".":
		case "..":
			if descended {
				return ErrUnsafePath
			}
		default:
			descended = true
		}
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(dst))
	if err != nil {
		return err
	}
	if !within(root, filepath.Join(parent, target)) {
		return ErrUnsafePath
	}
	return nil
}

// checkParents rejects dst when its deepest existing ancestor resolves
// outside root through symlinks planted by earlier members.
func checkParents(root, dst string) error {
	for p := filepath.Dir(dst); ; p = filepath.Dir(p) {
		if _, err := os.Lstat(p); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			if p == root || p == filepath.Dir(p) {
				return nil
			}
			continue
		}
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			return err
		}
		if !within(root, resolved) {
			return ErrUnsafePath
		}
		return nil
	}
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// prepare creates the parent of dst and removes whatever is at dst so a
// member never writes through an existing symlink.
func prepare(root, dst string) error {
	if err := checkParents(root, dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	fi, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return nil
	}
	return os.Remove(dst)
}
