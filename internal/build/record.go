// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Per-dependency build output directory:
//
//	Local/ExternalBuild/<name>/<platform>/
//	  .stage.json        # record of the last successful stage
//	  ...                # configure/cmake output
//
// The record is informational; whether a dependency needs building is
// decided from its artifacts alone.
const recordFile = ".stage.json"

// Record describes a successful stage of one dependency.
type Record struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Build     string    `json:"build"`
	Platform  string    `json:"platform"`
	Params    []string  `json:"params,omitempty"`
	BuildTime time.Time `json:"build_time"`
}

// RecordPath returns the record file inside a build output directory.
func RecordPath(buildDir string) string {
	return filepath.Join(buildDir, recordFile)
}

// WriteRecord stores r in buildDir.
func WriteRecord(buildDir string, r *Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(RecordPath(buildDir), data, 0o644)
}

// ReadRecord loads the record from buildDir.
func ReadRecord(buildDir string) (*Record, error) {
	data, err := os.ReadFile(RecordPath(buildDir))
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
