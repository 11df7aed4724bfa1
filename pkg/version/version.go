// Package version exposes the build version of greentrail.
package version

import (
	"github.com/Masterminds/semver/v3"
)

// version is set at build time with
// -ldflags "-X github.com/rshade/greentrail/pkg/version.version=v1.2.3".
var version = "v0.1.0-dev" //nolint:gochecknoglobals // Set via ldflags

// GetVersion returns the build version string.
func GetVersion() string {
	return version
}

// Semver parses the build version. Development builds parse as prereleases.
func Semver() (*semver.Version, error) {
	return semver.NewVersion(version)
}
