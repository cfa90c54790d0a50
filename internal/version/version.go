// ABOUTME: Version constants
// ABOUTME: Build identification for CLI and logs
package version

const (
	// Version is the semantic version, overridden at release time.
	Version = "0.1.0"
	// Product names the binary in device-facing strings.
	Product = "audiograph"
	// Manufacturer names the project.
	Manufacturer = "Sessioncast"
)
