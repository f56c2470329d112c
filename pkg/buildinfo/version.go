// Package buildinfo reports the version of the nodel binary.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/nodel/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/nodel/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/nodel/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with `go install` fall back to the module version and VCS
// stamp recorded by the toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFrom(info)
}

// fillFrom replaces unset variables with values from the toolchain's build
// info.
func fillFrom(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("nodel %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template for cobra.
func Template() string {
	return String() + "\n"
}
