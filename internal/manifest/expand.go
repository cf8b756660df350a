// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest

import (
	"maps"
	"strings"
)

// Vars are the values a dependency's params, defines and env may refer to
// as ${install_dir}, ${source_root}, ${build_dir}, ${source_dir},
// ${platform} and ${name}. Directories are absolute.
type Vars struct {
	Name       string
	Platform   string
	InstallDir string
	SourceDir  string // extraction directory
	SourceRoot string // located build root inside SourceDir
	BuildDir   string
}

// Expand replaces the ${var} references Vars defines. Anything else,
// including $ORIGIN, $$ and ${HOME}, is passed through unchanged.
func (v Vars) Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer(
		"${install_dir}", v.InstallDir,
		"${source_root}", v.SourceRoot,
		"${source_dir}", v.SourceDir,
		"${build_dir}", v.BuildDir,
		"${platform}", v.Platform,
		"${name}", v.Name,
	).Replace(s)
}

// Expand returns a copy of d with params, define values and env values
// expanded.
func (d Dependency) Expand(v Vars) Dependency {
	out := d
	if d.Params != nil {
		out.Params = make([]string, len(d.Params))
		for i, p := range d.Params {
			out.Params[i] = v.Expand(p)
		}
	}
	out.Defines = expandMap(d.Defines, v)
	out.Env = expandMap(d.Env, v)
	return out
}

func expandMap(m map[string]string, v Vars) map[string]string {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, val := range out {
		out[k] = v.Expand(val)
	}
	return out
}
