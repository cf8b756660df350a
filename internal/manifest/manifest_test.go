// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/xstage/internal/env"
)

const sample = `
dependencies:
  - name: SDL2
    url: https://www.libsdl.org/release/SDL2-2.0.5.tar.gz
    build: autotools
    artifacts: [bin, include, lib]
    platforms: [MacOS]
    params:
      - CC=sh ${source_root}/build-scripts/gcc-fat.sh
      - --prefix=${install_dir}
  - name: glm
    url: https://github.com/g-truc/glm/archive/0.9.8.4.tar.gz
    format: tar
    build: CMake
    artifacts: [include]
    defines:
      GLM_TEST_ENABLE: "OFF"
    params: ["-DCMAKE_INSTALL_PREFIX:PATH=${install_dir}"]
  - name: stb
    url: https://example.com/stb-master.zip
    build: copy
    marker: stb
    copy_to: include
    artifacts: [include/stb]
project:
  platforms: [MacOS]
  generator: [premake5, --file=./Source/premake.lua, xcode4]
  compiler: [xcodebuild, -project, Local/Build/Main.xcodeproj, -configuration, Debug]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, m.Dependencies, 3)

	sdl := m.Dependencies[0]
	assert.Equal(t, "SDL2", sdl.Name)
	assert.Equal(t, Autotools, sdl.Build)
	assert.Equal(t, "configure", sdl.Marker)
	assert.Equal(t, []string{"bin", "include", "lib"}, sdl.Artifacts)

	glm := m.Dependencies[1]
	assert.Equal(t, CMake, glm.Build, "build names are case-insensitive")
	assert.Equal(t, "CMakeLists.txt", glm.Marker)
	assert.Equal(t, map[string]string{"GLM_TEST_ENABLE": "OFF"}, glm.Defines)

	stb := m.Dependencies[2]
	assert.Equal(t, "stb", stb.Marker)
	assert.Equal(t, "include", stb.CopyTo)

	want := Project{
		Platforms: []string{"MacOS"},
		Generator: []string{"premake5", "--file=./Source/premake.lua", "xcode4"},
		Compiler:  []string{"xcodebuild", "-project", "Local/Build/Main.xcodeproj", "-configuration", "Debug"},
	}
	if diff := cmp.Diff(want, m.Project); diff != "" {
		t.Fatalf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "dependencies: [\n"},
		{"unknown key", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    build: cmake\n    artifacts: [lib]\n    colour: red\n"},
		{"missing name", "dependencies:\n  - url: http://x/a.tar\n    build: cmake\n    artifacts: [lib]\n"},
		{"name with slash", "dependencies:\n  - name: a/b\n    url: http://x/a.tar\n    build: cmake\n    artifacts: [lib]\n"},
		{"missing url", "dependencies:\n  - name: a\n    build: cmake\n    artifacts: [lib]\n"},
		{"empty artifacts", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    build: cmake\n"},
		{"missing build", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    artifacts: [lib]\n"},
		{"unknown build", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    build: meson\n    artifacts: [lib]\n"},
		{"copy without marker", "dependencies:\n  - name: a\n    url: http://x/a.zip\n    build: copy\n    artifacts: [include]\n"},
		{"defines on autotools", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    build: autotools\n    artifacts: [lib]\n    defines: {X: Y}\n"},
		{"copy_to on cmake", "dependencies:\n  - name: a\n    url: http://x/a.tar\n    build: cmake\n    artifacts: [lib]\n    copy_to: include\n"},
		{"format mismatch", "dependencies:\n  - name: a\n    url: http://x/a.tar.gz\n    format: zip\n    build: cmake\n    artifacts: [lib]\n"},
		{"unknown format", "dependencies:\n  - name: a\n    url: http://x/a.tar.gz\n    format: rar\n    build: cmake\n    artifacts: [lib]\n"},
		{"format on unknown extension", "dependencies:\n  - name: a\n    url: http://x/a.rar\n    format: tar\n    build: cmake\n    artifacts: [lib]\n"},
		{"duplicate", "dependencies:\n  - {name: a, url: 'http://x/a.tar', build: cmake, artifacts: [lib]}\n  - {name: a, url: 'http://x/b.tar', build: cmake, artifacts: [lib]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			if diff := cmp.Diff(errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err)); diff != "" {
				t.Fatalf("unexpected error code (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Dependencies)
	assert.True(t, m.Project.Empty())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Dependencies, 3)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dependencies: {"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestForPlatform(t *testing.T) {
	d := Dependency{Platforms: []string{"MacOS", "linux"}}
	assert.True(t, d.ForPlatform(env.MacOS))
	assert.True(t, d.ForPlatform(env.Linux), "platform names compare case-insensitively")
	assert.False(t, d.ForPlatform(env.Win32))

	all := Dependency{}
	assert.True(t, all.ForPlatform(env.Platform("sunos")))

	p := Project{Platforms: []string{"MacOS"}}
	assert.False(t, p.ForPlatform(env.Linux))
	assert.True(t, p.ForPlatform(env.MacOS))
	assert.True(t, p.Empty(), "platforms alone run nothing")

	p.Generator = []string{"premake5", "xcode4"}
	assert.False(t, p.Empty())
}

func TestSelect(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	deps, err := m.Select([]string{"stb", "SDL2"})
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "SDL2", deps[0].Name, "manifest order is kept")
	assert.Equal(t, "stb", deps[1].Name)

	all, err := m.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = m.Select([]string{"zlib"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestExpand(t *testing.T) {
	d := Dependency{
		Name:    "SDL2",
		Params:  []string{"CC=sh ${source_root}/build-scripts/gcc-fat.sh", "--prefix=${install_dir}", "CXX=clang++"},
		Defines: map[string]string{"OUT": "${build_dir}/${platform}"},
		Env:     map[string]string{"SRC": "${source_dir}", "TAG": "${name}"},
	}
	v := Vars{
		Name:       "SDL2",
		Platform:   "MacOS",
		InstallDir: "/w/External/SDL2/MacOS",
		SourceDir:  "/w/ExternalSource/SDL2",
		SourceRoot: "/w/ExternalSource/SDL2/SDL2-2.0.5",
		BuildDir:   "/w/Local/ExternalBuild/SDL2/MacOS",
	}
	got := d.Expand(v)

	want := Dependency{
		Name: "SDL2",
		Params: []string{
			"CC=sh /w/ExternalSource/SDL2/SDL2-2.0.5/build-scripts/gcc-fat.sh",
			"--prefix=/w/External/SDL2/MacOS",
			"CXX=clang++",
		},
		Defines: map[string]string{"OUT": "/w/Local/ExternalBuild/SDL2/MacOS/MacOS"},
		Env:     map[string]string{"SRC": "/w/ExternalSource/SDL2", "TAG": "SDL2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("expansion mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "${install_dir}", d.Params[1][len("--prefix="):], "original must be untouched")
}

func TestExpandKeepsOtherDollars(t *testing.T) {
	t.Setenv("ORIGIN", "/should/not/appear")
	v := Vars{Name: "zlib", InstallDir: "/w/External/zlib/Linux"}
	tests := []struct {
		in, want string
	}{
		{"LDFLAGS=-Wl,-rpath,$ORIGIN/../lib", "LDFLAGS=-Wl,-rpath,$ORIGIN/../lib"},
		{"CFLAGS=-DPRICE=$$5", "CFLAGS=-DPRICE=$$5"},
		{"--with-home=${HOME}", "--with-home=${HOME}"},
		{"${unknown}/${name}", "${unknown}/zlib"},
		{"--prefix=${install_dir} $@", "--prefix=/w/External/zlib/Linux $@"},
		{"${install_dir", "${install_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Expand(tt.in))
		})
	}
}
