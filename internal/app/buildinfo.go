package app

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
)

const dateLayout = "2006-01-02"

// BuildInfo identifies the running binary. Values from ldflags win; `go
// install` builds fall back to the module version and VCS commit time.
type BuildInfo struct {
	Version string
	Date    string
}

func CurrentBuild() BuildInfo {
	return resolveBuild(Version, BuildDate, debug.ReadBuildInfo)
}

func BuildVersion() string {
	return CurrentBuild().Version
}

func BuildDateYMD() string {
	return CurrentBuild().Date
}

// Banner is the one-line identification printed by the debug tool and shown in the main window.
func Banner() string {
	return Name + " " + CurrentBuild().String()
}

func (b BuildInfo) String() string {
	if b.Date == "" {
		return b.Version
	}

	return fmt.Sprintf("%s (%s)", b.Version, b.Date)
}

func resolveBuild(version, date string, read func() (*debug.BuildInfo, bool)) BuildInfo {
	info := BuildInfo{
		Version: strings.TrimSpace(version),
		Date:    shortDate(date),
	}
	if info.Version == "dev" {
		info.Version = ""
	}

	if info.Version == "" || info.Date == "" {
		if embedded, ok := read(); ok && embedded != nil {
			if info.Version == "" && embedded.Main.Version != "" && embedded.Main.Version != "(devel)" {
				info.Version = embedded.Main.Version
			}
			if info.Date == "" {
				for _, setting := range embedded.Settings {
					if setting.Key == "vcs.time" {
						info.Date = shortDate(setting.Value)
					}
				}
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}

	return info
}

// shortDate cuts RFC 3339 and date-prefixed values down to YYYY-MM-DD; anything
// else is returned trimmed.
func shortDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.Format(dateLayout)
	}
	if len(raw) >= len(dateLayout) {
		if _, err := time.Parse(dateLayout, raw[:len(dateLayout)]); err == nil {
			return raw[:len(dateLayout)]
		}
	}

	return raw
}
