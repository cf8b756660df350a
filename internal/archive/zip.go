// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"strings"
)

func extractZip(path, root string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, &ExtractionError{Archive: path, Err: err}
	}
	defer zr.Close()

	for i, f := range zr.File {
		if err := writeZipMember(f, root); err != nil {
			return i, &ExtractionError{Archive: path, Member: f.Name, Err: err}
		}
	}
	return len(zr.File), nil
}

func writeZipMember(f *zip.File, root string) error {
	dst, err := safeJoin(root, f.Name)
	if err != nil {
		return err
	}
	mode := f.Mode()
	perm := mode.Perm()

	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		if err := checkParents(root, dst); err != nil {
			return err
		}
		return os.MkdirAll(dst, perm|0o700)
	case mode&fs.ModeSymlink != 0:
		target, err := readAll(f)
		if err != nil {
			return err
		}
		if err := prepare(root, dst); err != nil {
			return err
		}
		if err := checkLink(root, dst, target); err != nil {
			return err
		}
		return os.Symlink(target, dst)
	}

	if perm == 0 {
		// archives written without unix modes
		perm = 0o644
	}
	if err := prepare(root, dst); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := writeFile(dst, rc, perm); err != nil {
		return err
	}
	return os.Chtimes(dst, f.Modified, f.Modified)
}

func readAll(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
