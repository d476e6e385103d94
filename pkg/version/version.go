// Package version holds build-time version metadata, overridable via
// -ldflags "-X rulekeybuilder/pkg/version.Version=...".
package version

// Version is the rkb release version. "dev" for unreleased builds.
var Version = "dev"

// Commit is the VCS commit the binary was built from, if known.
var Commit = "unknown"
