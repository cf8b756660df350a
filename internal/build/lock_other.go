// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package build

// lockPath is a no-op where flock is unavailable.
func lockPath(path string) (unlock func(), err error) {
	return func() {}, nil
}
