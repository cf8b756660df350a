// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"errors"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/goplus/xstage/internal/archive"
	"github.com/goplus/xstage/internal/build"
	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/fetch"
	"github.com/goplus/xstage/internal/locate"
	"github.com/goplus/xstage/internal/project"
	"github.com/goplus/xstage/pkgs/buildsys"
)

// wrapError gives err an errbuilder code unless it already carries one or
// is a project exit status.
func wrapError(err error) error {
	var builder *errbuilder.ErrBuilder
	var exitErr *project.ExitError
	if errors.As(err, &builder) || errors.As(err, &exitErr) {
		return err
	}
	return errbuilder.New().
		WithCode(classify(err)).
		WithMsg(err.Error()).
		WithCause(err)
}

func classify(err error) errbuilder.ErrCode {
	var (
		unsupported *archive.UnsupportedFormatError
		notFound    *locate.NotFoundError
		download    *fetch.DownloadError
		extraction  *archive.ExtractionError
		buildErr    *buildsys.BuildError
		dirErr      *env.DirError
	)
	switch {
	case errors.As(err, &unsupported), errors.Is(err, archive.ErrUnsafePath):
		return errbuilder.CodeInvalidArgument
	case errors.As(err, &notFound):
		return errbuilder.CodeNotFound
	case errors.Is(err, build.ErrLocked), errors.Is(err, project.ErrUnsupportedPlatform):
		return errbuilder.CodeFailedPrecondition
	case errors.As(err, &download), errors.As(err, &extraction), errors.As(err, &buildErr):
		return errbuilder.CodeFailedPrecondition
	case errors.As(err, &dirErr):
		return errbuilder.CodeInternal
	}
	var stageErr *build.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == build.StageBuild {
		return errbuilder.CodeFailedPrecondition
	}
	return errbuilder.CodeInternal
}
