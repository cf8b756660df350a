// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want Platform
	}{
		{"Linux", Linux},
		{"linux", Linux},
		{"linux2", Linux},
		{"Darwin", MacOS},
		{"darwin", MacOS},
		{"windows", Win32},
		{"win32", Win32},
		{"FreeBSD", Platform("FreeBSD")},
		{"plan9", Platform("plan9")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.name); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCurrentIsStable(t *testing.T) {
	p1, p2 := Current(), Current()
	if p1 != p2 {
		t.Fatalf("Current() not stable: %q then %q", p1, p2)
	}
	if p1 == "" {
		t.Fatal("Current() returned empty platform")
	}
	switch runtime.GOOS {
	case "linux":
		if p1 != Linux {
			t.Errorf("Current() = %q on linux, want %q", p1, Linux)
		}
	case "darwin":
		if p1 != MacOS {
			t.Errorf("Current() = %q on darwin, want %q", p1, MacOS)
		}
	case "windows":
		if p1 != Win32 {
			t.Errorf("Current() = %q on windows, want %q", p1, Win32)
		}
	}
}

func TestLayoutPaths(t *testing.T) {
	root := t.TempDir()
	l, err := NewLayout(root, MacOS)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}

	tests := []struct {
		name string
		get  func(string) (string, error)
		want string
	}{
		{"install", l.InstallDir, filepath.Join(root, "External", "SDL2", "MacOS")},
		{"source", l.SourceDir, filepath.Join(root, "ExternalSource", "SDL2")},
		{"build", l.BuildDir, filepath.Join(root, "Local", "ExternalBuild", "SDL2", "MacOS")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get("SDL2")
			if err != nil {
				t.Fatalf("%s dir: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("%s dir = %q, want %q", tt.name, got, tt.want)
			}
			info, err := os.Stat(got)
			if err != nil {
				t.Fatalf("directory was not created: %v", err)
			}
			if !info.IsDir() {
				t.Errorf("%s is not a directory", got)
			}
		})
	}

	dl, err := l.DownloadsDir()
	if err != nil {
		t.Fatalf("DownloadsDir: %v", err)
	}
	if want := filepath.Join(root, "Downloads"); dl != want {
		t.Errorf("DownloadsDir = %q, want %q", dl, want)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	l, err := NewLayout(t.TempDir(), Linux)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	dir1, err := l.InstallDir("glm")
	if err != nil {
		t.Fatalf("first InstallDir: %v", err)
	}
	marker := filepath.Join(dir1, "include")
	if err := os.Mkdir(marker, 0o755); err != nil {
		t.Fatal(err)
	}
	dir2, err := l.InstallDir("glm")
	if err != nil {
		t.Fatalf("second InstallDir: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("InstallDir not idempotent: %q then %q", dir1, dir2)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("existing content lost: %v", err)
	}
}

func TestLayoutPartitioning(t *testing.T) {
	root := t.TempDir()
	mac, _ := NewLayout(root, MacOS)
	linux, _ := NewLayout(root, Linux)

	for _, get := range []struct {
		name      string
		mac, lin  func(string) (string, error)
		wantEqual bool
	}{
		{"install", mac.InstallDir, linux.InstallDir, false},
		{"build", mac.BuildDir, linux.BuildDir, false},
		{"source", mac.SourceDir, linux.SourceDir, true},
	} {
		a, err := get.mac("SDL2")
		if err != nil {
			t.Fatal(err)
		}
		b, err := get.lin("SDL2")
		if err != nil {
			t.Fatal(err)
		}
		if (a == b) != get.wantEqual {
			t.Errorf("%s: MacOS=%q Linux=%q, equal=%v want %v", get.name, a, b, a == b, get.wantEqual)
		}
	}
}

func TestLayoutDirError(t *testing.T) {
	root := t.TempDir()
	// A regular file where a directory is expected.
	blocker := filepath.Join(root, "External")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLayout(root, Linux)
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.InstallDir("SDL2")
	var dirErr *DirError
	if !errors.As(err, &dirErr) {
		t.Fatalf("InstallDir error = %v, want *DirError", err)
	}
	if want := filepath.Join(root, "External", "SDL2", "Linux"); dirErr.Path != want {
		t.Errorf("DirError.Path = %q, want %q", dirErr.Path, want)
	}
}

func TestPathsDoNotCreate(t *testing.T) {
	root := t.TempDir()
	l, err := NewLayout(root, Linux)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	p := l.Paths("glm")
	if want := filepath.Join(root, "External", "glm", "Linux"); p.Install != want {
		t.Errorf("Install = %q, want %q", p.Install, want)
	}
	for _, dir := range []string{p.Install, p.Source, p.Build} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%s exists, Paths must not create directories", dir)
		}
	}

	lock, err := l.LockFile()
	if err != nil {
		t.Fatalf("LockFile: %v", err)
	}
	if want := filepath.Join(root, "Local", ".xstage.lock"); lock != want {
		t.Errorf("LockFile = %q, want %q", lock, want)
	}
	if _, err := os.Stat(filepath.Dir(lock)); err != nil {
		t.Errorf("lock directory not created: %v", err)
	}
}
