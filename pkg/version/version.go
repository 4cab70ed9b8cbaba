package version

import (
	"fmt"
	"runtime"
)

// Build information, set at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns the version line printed by the CLI
func String() string {
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		Version, commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
