// SPDX-License-Identifier: MIT
package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stamp sets the linker variables for one test and restores them, and the
// build information, afterwards.
func stamp(t *testing.T, name, time, commit, version string) {
	t.Helper()
	saved := *buildFlags
	oldName, oldTime, oldCommit, oldVersion := buildName, buildTime, buildCommit, buildVersion
	t.Cleanup(func() {
		*buildFlags = saved
		buildName, buildTime, buildCommit, buildVersion = oldName, oldTime, oldCommit, oldVersion
	})

	*buildFlags = ldFlags{Name: "voxcut", Time: "unknown", Commit: "unknown", Version: "dev"}
	buildName, buildTime, buildCommit, buildVersion = name, time, commit, version
}

func TestInitializeMissingFlag(t *testing.T) {
	tests := []struct {
		name                        string
		bName, bTime, bCommit, bVer string
		wantErr                     string
	}{
		{"name", "", "2026-03-01", "9f1c2e0", "v0.4.1", "BuildName is required"},
		{"time", "voxcut", "", "9f1c2e0", "v0.4.1", "BuildTime is required"},
		{"commit", "voxcut", "2026-03-01", "", "v0.4.1", "BuildCommit is required"},
		{"version", "voxcut", "2026-03-01", "9f1c2e0", "", "BuildVersion is required"},
		{"all", "", "", "", "", "BuildName is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.bName, tt.bTime, tt.bCommit, tt.bVer)

			err := Initialize()
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)

			// A partial stamp never leaks into the reported version.
			flags := GetBuildFlags()
			assert.Equal(t, "voxcut", flags.Name)
			assert.Equal(t, "dev", flags.Version)
			assert.Equal(t, "unknown", flags.Commit)
		})
	}
}

func TestInitializeStamped(t *testing.T) {
	stamp(t, "voxcut-nightly", "2026-03-01", "9f1c2e0", "v0.4.1")

	require.NoError(t, Initialize())

	flags := GetBuildFlags()
	assert.Equal(t, ldFlags{
		Name:    "voxcut-nightly",
		Time:    "2026-03-01",
		Commit:  "9f1c2e0",
		Version: "v0.4.1",
	}, *flags)
	assert.Equal(t, "v0.4.1 (commit 9f1c2e0, built 2026-03-01)", flags.String())
}

func TestDevelopmentBuildString(t *testing.T) {
	stamp(t, "", "", "", "")
	_ = Initialize()

	assert.Equal(t, "dev (commit unknown, built unknown)", GetBuildFlags().String())
}
