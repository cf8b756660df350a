// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package env

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// sysname reports the kernel name from uname(2).
func sysname() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOOS
	}
	if name := unix.ByteSliceToString(u.Sysname[:]); name != "" {
		return name
	}
	return runtime.GOOS
}
