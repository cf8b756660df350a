// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xstage downloads, builds and stages the native dependencies
// listed in a project manifest.
package main

import "github.com/goplus/xstage/cmd/xstage/internal"

func main() {
	internal.Execute()
}
