// Package version records build metadata injected at link time via
// -ldflags.
package version

import "runtime"

var (
	// GitRelease is the release tag, or "dev" for local builds.
	GitRelease = "dev"

	// GitCommit is the short commit hash.
	GitCommit = "unknown"

	// GitCommitDate is the commit timestamp.
	GitCommitDate = "unknown"

	// GoInfo is the Go toolchain version the binary was built with.
	GoInfo = runtime.Version()
)
