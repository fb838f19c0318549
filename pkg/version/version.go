// Package version exposes build metadata injected at link time.
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
}
