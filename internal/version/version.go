// Package version carries build identification, set via -ldflags at
// release time.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line summary for -version output.
func String() string {
	return fmt.Sprintf("rowdetect %s (%s, built %s)", Version, GitSHA, BuildTime)
}
