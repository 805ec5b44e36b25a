package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/avion00/medicare-backend/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build identity reported at startup and on the health endpoint.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: ShortCommit(),
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// ShortCommit trims the commit hash to seven characters.
func ShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, built %s, %s)", i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
