// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// decompress wraps r with the reader for format. The returned closer is
// never nil.
func decompress(r io.Reader, format Format) (io.Reader, io.Closer, error) {
	switch format {
	case TarGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case TarBzip2:
		br, err := bzip2.NewReader(r, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, nil, err
		}
		return br, br, nil
	case TarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, io.NopCloser(nil), nil
	}
	return r, io.NopCloser(nil), nil
}

func extractTar(path string, format Format, root string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &ExtractionError{Archive: path, Err: err}
	}
	defer f.Close()

	r, closer, err := decompress(f, format)
	if err != nil {
		return 0, &ExtractionError{Archive: path, Err: err}
	}
	defer closer.Close()

	tr := tar.NewReader(r)
	n := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, &ExtractionError{Archive: path, Err: err}
		}
		if err := writeTarMember(tr, hdr, root); err != nil {
			return n, &ExtractionError{Archive: path, Member: hdr.Name, Err: err}
		}
		n++
	}
}

func writeTarMember(tr *tar.Reader, hdr *tar.Header, root string) error {
	switch hdr.Typeflag {
	case tar.TypeXGlobalHeader, tar.TypeXHeader, tar.TypeGNULongName, tar.TypeGNULongLink:
		return nil
	}
	dst, err := safeJoin(root, hdr.Name)
	if err != nil {
		return err
	}
	mode := hdr.FileInfo().Mode()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := checkParents(root, dst); err != nil {
			return err
		}
		return os.MkdirAll(dst, mode.Perm()|0o700)
	case tar.TypeReg:
		if err := prepare(root, dst); err != nil {
			return err
		}
		if err := writeFile(dst, tr, mode.Perm()); err != nil {
			return err
		}
		return os.Chtimes(dst, hdr.ModTime, hdr.ModTime)
	case tar.TypeSymlink:
		if err := prepare(root, dst); err != nil {
			return err
		}
		if err := checkLink(root, dst, hdr.Linkname); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, dst)
	case tar.TypeLink:
		src, err := safeJoin(root, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := checkParents(root, src); err != nil {
			return err
		}
		if err := prepare(root, dst); err != nil {
			return err
		}
		return os.Link(src, dst)
	}
	// devices and fifos have no place in a source tree
	return nil
}

func writeFile(dst string, r io.Reader, perm os.FileMode) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// the umask may have dropped bits
	return os.Chmod(dst, perm)
}
