// Package version exposes build information for the platform binaries.
//
// The values are set at build time via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/mathservice-vn/platform/app/internal/version.version=v1.2.0"
package version

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Info describes the build of the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Get returns the build information compiled into the binary.
func Get() Info {
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
	}
}
