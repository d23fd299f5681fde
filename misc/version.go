// Package misc keeps build time information.
package misc

import (
	"runtime/debug"
)

// set by linker
var (
	appName string
	version string
	gitHash string
)

func GetAppName() string {
	if appName != "" {
		return appName
	}
	return "atomcss"
}

func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
