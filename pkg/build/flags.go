// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the voxcut binary with
// linker flags:
//
//	go build -ldflags "-X voxcut/pkg/build.buildName=voxcut -X voxcut/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds run without them and report the defaults.
package build

import (
	"errors"
	"fmt"
)

// Description is the one-line summary shown in the CLI help.
const Description = "Voice remover: mid/side center-channel suppression for page media"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the version line printed by --version.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "voxcut",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies the ldflags values into the build information. It
// returns an error naming the first missing flag and leaves the defaults
// in place in that case.
func Initialize() error {
	if buildName == "" {
		return errors.New("BuildName is required")
	}
	if buildTime == "" {
		return errors.New("BuildTime is required")
	}
	if buildCommit == "" {
		return errors.New("BuildCommit is required")
	}
	if buildVersion == "" {
		return errors.New("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
