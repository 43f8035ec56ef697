// Package build holds version metadata set at link time, e.g.
//
//	-ldflags "-X github.com/storacha/edgeapp/pkg/build.Version=v1.2.3"
package build

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

