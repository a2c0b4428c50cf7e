package version

import (
	"fmt"
	"runtime"
)

// Build variables injected at link time:
// -X 'github.com/compozy/scenario-mcp/pkg/version.Version=v1.0.0'
// -X 'github.com/compozy/scenario-mcp/pkg/version.CommitHash=abc123'
// -X 'github.com/compozy/scenario-mcp/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// ServerName is reported to protocol clients during initialization.
const ServerName = "scenario-mcp"

type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", ServerName, i.Version, i.CommitHash, i.BuildDate, i.GoVersion)
}

// UserAgent identifies outbound HTTP calls.
func UserAgent() string {
	return ServerName + "/" + Version
}
