// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest loads the YAML file describing the external packages a
// project stages and the commands that build the project afterwards.
//
// A minimal manifest:
//
//	dependencies:
//	  - name: glm
//	    url: https://github.com/g-truc/glm/archive/0.9.8.4.tar.gz
//	    build: cmake
//	    artifacts: [include]
//	project:
//	  platforms: [MacOS]
//	  generator: [premake5, --file=./Source/premake.lua, xcode4]
//	  compiler: [xcodebuild, -project, Local/Build/Main.xcodeproj]
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"github.com/goplus/xstage/internal/archive"
	"github.com/goplus/xstage/internal/env"
)

// DefaultFile is the manifest looked up when none is named.
const DefaultFile = "xstage.yaml"

// BuildSystem names the native protocol used to install a dependency.
type BuildSystem string

const (
	Autotools BuildSystem = "autotools"
	CMake     BuildSystem = "cmake"
	Copy      BuildSystem = "copy"
)

// DefaultMarker returns the entry whose presence identifies the build root
// for b, or "" when b has none.
func (b BuildSystem) DefaultMarker() string {
	switch b {
	case Autotools:
		return "configure"
	case CMake:
		return "CMakeLists.txt"
	}
	return ""
}

// Dependency describes one external package.
type Dependency struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Format, when set, is "tar" or "zip" and must agree with the URL
	// extension. It is only checked; extraction always dispatches on the
	// extension of the downloaded file.
	Format string      `yaml:"format,omitempty"`
	Build  BuildSystem `yaml:"build"`
	// Marker is the file or directory identifying the build root.
	Marker string `yaml:"marker,omitempty"`
	// Artifacts are paths relative to the install directory whose presence
	// means the dependency is already staged.
	Artifacts []string `yaml:"artifacts"`
	// Params are passed verbatim to configure or cmake after expansion.
	Params []string `yaml:"params,omitempty"`
	// Defines become -D<key>=<value> cmake definitions.
	Defines map[string]string `yaml:"defines,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	// CopyTo is the install subdirectory receiving <source_root>/<marker>
	// for copy builds.
	CopyTo    string   `yaml:"copy_to,omitempty"`
	Platforms []string `yaml:"platforms,omitempty"`
}

// Project holds the commands that turn the staged tree into a build.
type Project struct {
	Platforms []string `yaml:"platforms,omitempty"`
	Generator []string `yaml:"generator,omitempty"`
	Compiler  []string `yaml:"compiler,omitempty"`
}

// Manifest is the decoded manifest file.
type Manifest struct {
	Dependencies []Dependency `yaml:"dependencies"`
	Project      Project      `yaml:"project,omitempty"`
}

// Load reads, decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errbuilder.CodeInternal
		if errors.Is(err, os.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("manifest %s: %v", path, err)).
			WithCause(err)
	}
	m, err := Parse(data)
	if err != nil {
		var eb *errbuilder.ErrBuilder
		if errors.As(err, &eb) {
			eb.Msg = fmt.Sprintf("manifest %s: %s", path, eb.Msg)
		}
		return nil, err
	}
	return m, nil
}

// Parse decodes and validates manifest data. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse manifest yaml: %v", err)).
			WithCause(err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		d.Build = BuildSystem(strings.ToLower(string(d.Build)))
		if d.Marker == "" {
			d.Marker = d.Build.DefaultMarker()
		}
	}
}

func invalid(format string, args ...any) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf(format, args...))
}

// Validate checks every dependency and the project commands.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Dependencies))
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		if strings.TrimSpace(d.Name) == "" {
			return invalid("dependencies[%d]: name must be set", i)
		}
		if seen[d.Name] {
			return invalid("dependency %s: duplicate name", d.Name)
		}
		seen[d.Name] = true
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single dependency.
func (d *Dependency) Validate() error {
	if strings.ContainsAny(d.Name, `/\`) || d.Name == "." || d.Name == ".." {
		return invalid("dependency %s: name must be a single path element", d.Name)
	}
	if strings.TrimSpace(d.URL) == "" {
		return invalid("dependency %s: url must be set", d.Name)
	}
	if len(d.Artifacts) == 0 {
		return invalid("dependency %s: artifacts must not be empty", d.Name)
	}
	switch d.Build {
	case Autotools, CMake:
	case Copy:
		if d.Marker == "" {
			return invalid("dependency %s: copy build needs a marker", d.Name)
		}
	case "":
		return invalid("dependency %s: build must be set", d.Name)
	default:
		return invalid("dependency %s: unknown build %q (want autotools, cmake or copy)", d.Name, d.Build)
	}
	if len(d.Defines) > 0 && d.Build != CMake {
		return invalid("dependency %s: defines are only valid for cmake builds", d.Name)
	}
	if d.CopyTo != "" && d.Build != Copy {
		return invalid("dependency %s: copy_to is only valid for copy builds", d.Name)
	}
	if d.Format != "" {
		if err := d.checkFormat(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dependency) checkFormat() error {
	f, err := archive.FormatOf(d.URL)
	if err != nil {
		return invalid("dependency %s: format %s declared but %v", d.Name, d.Format, err)
	}
	switch strings.ToLower(d.Format) {
	case "tar":
		if f.IsTar() {
			return nil
		}
	case "zip":
		if f == archive.Zip {
			return nil
		}
	default:
		return invalid("dependency %s: unknown format %q (want tar or zip)", d.Name, d.Format)
	}
	return invalid("dependency %s: format %s does not match url extension (%s)", d.Name, d.Format, f)
}

// ForPlatform reports whether d applies to p. A dependency without
// platforms applies everywhere.
func (d *Dependency) ForPlatform(p env.Platform) bool {
	return matchPlatform(d.Platforms, p)
}

// ForPlatform reports whether the project commands apply to p.
func (p *Project) ForPlatform(platform env.Platform) bool {
	return matchPlatform(p.Platforms, platform)
}

// Empty reports whether there is nothing to run.
func (p *Project) Empty() bool {
	return len(p.Generator) == 0 && len(p.Compiler) == 0
}

func matchPlatform(platforms []string, p env.Platform) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, name := range platforms {
		if strings.EqualFold(name, p.String()) {
			return true
		}
	}
	return false
}

// Select returns the dependencies named in names, in manifest order. With
// no names it returns all of them.
func (m *Manifest) Select(names []string) ([]Dependency, error) {
	if len(names) == 0 {
		return m.Dependencies, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Dependency
	for _, d := range m.Dependencies {
		if want[d.Name] {
			out = append(out, d)
			delete(want, d.Name)
		}
	}
	for _, n := range names {
		if want[n] {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("dependency %s is not in the manifest", n))
		}
	}
	return out, nil
}
