package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/tenantgate/internal/buildconfig.version=v1.2.0
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime,omitempty"`
}

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// Current returns the build information reported by the health endpoint.
func Current() Info {
	return Info{Version: version, Commit: commit, BuildTime: buildTime}
}
