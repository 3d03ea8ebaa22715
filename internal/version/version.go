// Package version carries build metadata stamped in with -ldflags, e.g.
//
//	-X github.com/projectaghoy/aghoy/internal/version.Version=v1.2.0
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String is the --version output.
func String() string {
	return fmt.Sprintf("aghoy version %s (commit %s, built %s, %s)", Version, Commit, BuildTime, runtime.Version())
}

// UserAgent identifies this broker to LLM providers.
func UserAgent() string {
	return fmt.Sprintf("aghoy/%s (%s)", Version, runtime.Version())
}
