// Package build holds version information injected at build time.
package build

// These variables are set via -ldflags at build time.
var (
	// Version is the application version.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
