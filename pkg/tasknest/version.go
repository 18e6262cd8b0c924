// Package tasknest holds build metadata for the tasknest binary.
package tasknest

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information
const (
	Version       = "0.3.0"
	SchemaVersion = "0001"
)

// BuildInfo contains build information
var BuildInfo = struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}{
	Version:   Version,
	GoVersion: runtime.Version(),
}

// SetBuildInfo is called from main with values injected by -ldflags.
func SetBuildInfo(commit, date string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
}

func VersionInfo() string {
	return fmt.Sprintf("tasknest %s (schema %s)", BuildInfo.Version, SchemaVersion)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tasknest %s\n", BuildInfo.Version)
	fmt.Fprintf(&b, "Schema Version: %s\n", SchemaVersion)
	fmt.Fprintf(&b, "Go Version: %s\n", BuildInfo.GoVersion)

	if BuildInfo.GitCommit != "" {
		fmt.Fprintf(&b, "Git Commit: %s\n", BuildInfo.GitCommit)
	}
	if BuildInfo.BuildDate != "" {
		fmt.Fprintf(&b, "Build Date: %s\n", BuildInfo.BuildDate)
	}
	return b.String()
}
