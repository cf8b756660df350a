// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/manifest"
	"github.com/goplus/xstage/pkgs/buildsys"
)

// configure writes a Makefile whose install target creates <prefix>/lib
// and <prefix>/include.
const e2eConfigure = `#!/bin/sh
prefix=/nonexistent
for arg in "$@"; do
  case "$arg" in
    --prefix=*) prefix="${arg#--prefix=}" ;;
  esac
done
printf 'install:\n\tmkdir -p %s/lib %s/include\n\ttouch %s/lib/libdummy.a\n' "$prefix" "$prefix" "$prefix" > Makefile
`

const failingConfigure = "#!/bin/sh\necho 'checking for a working compiler... no' >&2\nexit 1\n"

func requireShellTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell configure scripts are not runnable on windows")
	}
	for _, bin := range []string{"sh", "make"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range files {
		mode := int64(0o644)
		if filepath.Base(name) == "configure" {
			mode = 0o755
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: mode, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, data []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestE2E_AutotoolsTarGz(t *testing.T) {
	requireShellTools(t)
	server, hits := serve(t, tarGz(t, map[string]string{
		"dummy-1.0/configure":  e2eConfigure,
		"dummy-1.0/src/main.c": "int main(void) { return 0; }\n",
	}))

	root := t.TempDir()
	layout, err := env.NewLayout(root, env.Current())
	require.NoError(t, err)
	b := New(layout)
	dep := manifest.Dependency{
		Name:      "dummy",
		URL:       server.URL + "/dummy-1.0.tar.gz",
		Build:     manifest.Autotools,
		Artifacts: []string{"include", "lib/libdummy.a"},
	}

	before, err := os.Getwd()
	require.NoError(t, err)

	results, err := b.Build(context.Background(), []manifest.Dependency{dep})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(root, "ExternalSource", "dummy", "dummy-1.0"), results[0].SourceRoot)

	installDir := filepath.Join(root, "External", "dummy", env.Current().String())
	ok, missing := Satisfied(installDir, dep.Artifacts)
	assert.True(t, ok, "missing after build: %v", missing)
	_, err = os.Stat(filepath.Join(root, "Downloads", "dummy-1.0.tar.gz"))
	assert.NoError(t, err)

	after, _ := os.Getwd()
	assert.Equal(t, before, after)

	results, err = b.Build(context.Background(), []manifest.Dependency{dep})
	require.NoError(t, err)
	assert.True(t, results[0].Satisfied)
	assert.Equal(t, int32(1), hits.Load())
}

func TestE2E_BuildFailureKeepsWorkingDir(t *testing.T) {
	requireShellTools(t)
	server, _ := serve(t, tarGz(t, map[string]string{"bad-1.0/configure": failingConfigure}))

	root := t.TempDir()
	layout, err := env.NewLayout(root, env.Linux)
	require.NoError(t, err)
	before, err := os.Getwd()
	require.NoError(t, err)

	_, err = New(layout).Stage(context.Background(), manifest.Dependency{
		Name:      "bad",
		URL:       server.URL + "/bad-1.0.tar.gz",
		Build:     manifest.Autotools,
		Artifacts: []string{"lib"},
	})

	var se *StageError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, StageBuild, se.Stage)
	var be *buildsys.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.ExitCode)
	assert.Contains(t, be.Output, "working compiler")

	after, _ := os.Getwd()
	assert.Equal(t, before, after, "working directory must be restored after a failed build")
}

func TestE2E_CopyHeaders(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path layout differs on windows")
	}
	server, _ := serve(t, tarGz(t, map[string]string{
		"stb-master/stb/stb_image.h":    "/* stb_image */",
		"stb-master/stb/stb_truetype.h": "/* stb_truetype */",
		"stb-master/README.md":          "readme",
	}))
	root := t.TempDir()
	layout, err := env.NewLayout(root, env.Linux)
	require.NoError(t, err)

	dep := manifest.Dependency{
		Name:      "stb",
		URL:       server.URL + "/stb-master.tar.gz",
		Build:     manifest.Copy,
		Marker:    "stb",
		CopyTo:    "include",
		Artifacts: []string{"include/stb/stb_image.h"},
	}
	_, err = New(layout).Stage(context.Background(), dep)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "External", "stb", "Linux", "include", "stb", "stb_truetype.h"))
	require.NoError(t, err)
	assert.Equal(t, "/* stb_truetype */", string(data))
	_, err = os.Stat(filepath.Join(root, "External", "stb", "Linux", "include", "README.md"))
	assert.True(t, os.IsNotExist(err))
}
