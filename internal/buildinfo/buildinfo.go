// Package buildinfo exposes version metadata stamped at link time.
//
//	go build -ldflags "-X pilotmgr/internal/buildinfo.Version=0.9.4 -X pilotmgr/internal/buildinfo.Branch=release3"
package buildinfo

import (
	"runtime/debug"
	"slices"
	"strings"
)

// Set via -ldflags -X.
var (
	Version         = "dev"
	Branch          = ""
	Origin          = ""
	TermsVersion    = "2"
	TrainingVersion = "0.2.0"
	DeviceType      = "pc"
)

var (
	releaseBranches = []string{"release3-staging", "release3", "nightly"}
	testedBranches  = []string{"release3-staging", "release3", "nightly", "devel-staging"}
)

// Info is a snapshot of the build metadata written into the config store and
// bound into the logging context.
type Info struct {
	Version         string
	Branch          string
	Origin          string
	Commit          string
	Dirty           bool
	TermsVersion    string
	TrainingVersion string
	DeviceType      string
	IsTestedBranch  bool
	IsReleaseBranch bool
}

// Current reads the link-time variables and VCS settings embedded by the Go toolchain.
func Current() Info {
	info := Info{
		Version:         Version,
		Branch:          Branch,
		Origin:          Origin,
		TermsVersion:    TermsVersion,
		TrainingVersion: TrainingVersion,
		DeviceType:      DeviceType,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}
	info.IsReleaseBranch = slices.Contains(releaseBranches, info.Branch)
	info.IsTestedBranch = slices.Contains(testedBranches, info.Branch)
	return info
}

// NormalizedOrigin strips the scheme and .git suffix from a remote URL.
func (i Info) NormalizedOrigin() string {
	o := strings.TrimSpace(i.Origin)
	o = strings.TrimPrefix(o, "git@")
	o = strings.TrimPrefix(o, "https://")
	o = strings.TrimSuffix(o, ".git")
	return strings.Replace(o, ":", "/", 1)
}
