// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package version

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	GitCommit   string
	GitDescribe string

	Version           = "0.1.0"
	VersionPrerelease = "dev"
	VersionMetadata   string
)
