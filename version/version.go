// Package version reports the build identity stamped by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	// Tag is set with -ldflags "-X taskbridge-bot/version.Tag=v1.2.3".
	Tag      string
	Revision string
	BuildAt  string
	Dirty    bool
)

func init() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range buildInfo.Settings {
		// https://pkg.go.dev/runtime/debug#BuildSetting
		switch setting.Key {
		case "vcs.revision":
			Revision = setting.Value
		case "vcs.time":
			BuildAt = setting.Value
		case "vcs.modified":
			Dirty = setting.Value == "true"
		}
	}
}

// String renders "<tag> <short revision> at <time>", or "dev" outside a
// VCS build.
func String() string {
	return format(Tag, Revision, BuildAt, Dirty)
}

func format(tag, revision, buildAt string, dirty bool) string {
	if revision == "" {
		if tag != "" {
			return tag
		}
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}

	if t, err := time.Parse(time.RFC3339, buildAt); err == nil {
		buildAt = t.Format("2006-01-02 15:04:05")
	}

	s := fmt.Sprintf("%s %s at %s", tag, revision, buildAt)
	if tag == "" {
		s = fmt.Sprintf("%s at %s", revision, buildAt)
	}
	if dirty {
		s += " dirty"
	}
	return s
}
