// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env resolves the host platform and the staging directories every
// dependency is fetched, built and installed into.
package env

import (
	"strings"
	"sync"
)

// Platform is the canonical name of an operating system. It partitions the
// install and build-output directories.
type Platform string

const (
	Linux Platform = "Linux"
	MacOS Platform = "MacOS"
	Win32 Platform = "Win32"
)

func (p Platform) String() string {
	return string(p)
}

// Current returns the platform of the running host. It is resolved once per
// process.
var Current = sync.OnceValue(func() Platform {
	return Resolve(sysname())
})

// Resolve maps a system-reported OS name to its Platform. Names it does not
// know are returned unchanged.
func Resolve(name string) Platform {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linux", "linux2":
		return Linux
	case "darwin":
		return MacOS
	case "windows", "win32":
		return Win32
	}
	return Platform(name)
}
