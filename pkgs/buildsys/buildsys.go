// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildsys holds what the native build protocols share: the
// BuildSystem lifecycle and the subprocess runner behind it.
package buildsys

import "context"

// BuildSystem captures shared capabilities of build helpers (CMake, Autotools).
type BuildSystem interface {
	// Env sets an environment override for every command spawned later.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// Build runs Configure with params followed by Install.
func Build(ctx context.Context, b BuildSystem, params ...string) error {
	if err := b.Configure(ctx, params...); err != nil {
		return err
	}
	return b.Install(ctx)
}
