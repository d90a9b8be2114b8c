// Package misc keeps program identity: name, version and build revision.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "stylecore"

// Set with -ldflags "-X stylecore/misc.version=..." at build time.
var (
	version = ""
	gitHash = ""
)

var buildInfo = sync.OnceValues(func() (string, string) {
	ver, hash := version, gitHash
	if bi, ok := debug.ReadBuildInfo(); ok {
		if ver == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			ver = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && hash == "" {
				hash = s.Value
			}
		}
	}
	if ver == "" {
		ver = "dev"
	}
	if hash == "" {
		hash = "unknown"
	}
	return ver, hash
})

func GetAppName() string {
	return appName
}

func GetVersion() string {
	v, _ := buildInfo()
	return v
}

func GetGitHash() string {
	_, h := buildInfo()
	return h
}
