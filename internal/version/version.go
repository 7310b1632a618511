// Package version records the build version of the debug client.
package version

// Version is the client version, overridable at build time via
// -ldflags "-X github.com/polyrun/debug-client/internal/version.Version=...".
var Version = "0.1.0"
