// Package version carries build metadata of the scmlog binary.
package version

import "runtime/debug"

const unknown = "unknown"

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Commit and Date from the Go build info when they were
// not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata for version output.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
