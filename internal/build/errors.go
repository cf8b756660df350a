// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import "fmt"

// Stage names a step of the per-dependency pipeline.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageCheck   Stage = "check"
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageLocate  Stage = "locate"
	StageBuild   Stage = "build"
	StageRecord  Stage = "record"
)

// StageError reports the dependency and stage a pipeline failure happened
// in. Err is one of env.DirError, fetch.DownloadError,
// archive.UnsupportedFormatError, archive.ExtractionError,
// locate.NotFoundError or buildsys.BuildError, or a plain I/O error.
type StageError struct {
	Dep   string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Dep, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
