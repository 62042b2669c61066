// Package buildinfo carries release metadata set at link time, e.g.
//
//	go build -ldflags "-X github.com/aidanlsb/nbfix/internal/buildinfo.Version=v0.3.0"
package buildinfo

// Empty for local builds; the CLI then falls back to runtime/debug build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
