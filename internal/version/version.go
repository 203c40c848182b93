package version

import "runtime"

// Set at build time via -ldflags "-X ...". Defaults apply to plain `go run`.
var (
	// Version is the release tag of this binary
	Version = "dev"
	// Commit is the git revision the binary was built from
	Commit = "unknown"
	// BuildTime is when the binary was built, ISO 8601
	BuildTime = "unknown"
)

// Info is the build metadata served on /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get assembles the build metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
