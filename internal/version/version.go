// Package version reports the klipmi build and the HMI firmware version the
// OpenP4 pages target.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Release builds stamp these with
//
//	-ldflags="-X github.com/muurk/klipmi/internal/version.Version=v0.3.0 \
//	          -X github.com/muurk/klipmi/internal/version.Commit=4f1c2e9"
//
// Anything left empty is filled from the module's VCS stamp.
var (
	Version = ""
	Commit  = ""
)

const shortHash = 7

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info, time.Now())
}

// resolve fills the unstamped parts of a build identity. A build with no
// VCS stamp gets a dev version named after the time it started.
func resolve(ver, commit string, info *debug.BuildInfo, now time.Time) (string, string) {
	vcs := map[string]string{}
	if info != nil {
		for _, s := range info.Settings {
			vcs[s.Key] = s.Value
		}
	}

	if commit == "" {
		commit = "unknown"
		if rev := vcs["vcs.revision"]; rev != "" {
			commit = rev[:min(len(rev), shortHash)]
			if vcs["vcs.modified"] == "true" {
				commit += "-dirty"
			}
		}
	}

	if ver == "" {
		ver = "dev-" + now.Format("20060102-150405")
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			ver = "dev-" + t.Format("20060102")
		}
	}
	return ver, commit
}

// Full is the version line printed by `klipmi version`
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// OpenP4 HMI firmware release the page set is written against
const (
	HMIMajor = 1
	HMIMinor = 7
	HMIPatch = 1
)

// HMICode is the HMI version as the boot page's version.val expects it:
// major*10000 + minor*100 + patch.
func HMICode() int {
	return HMIMajor*10000 + HMIMinor*100 + HMIPatch
}
