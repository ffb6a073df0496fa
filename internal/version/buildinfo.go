package version

import (
	"runtime/debug"
	"strings"
)

// Effective returns v unless it is empty or "dev", in which case the
// version is read from the binary's build info: the module version for a
// tagged go install, else devel+<revision>[+dirty].
func Effective(v string) string {
	if v != "" && v != "dev" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	return fromBuildInfo(info, v)
}

func fromBuildInfo(info *debug.BuildInfo, fallback string) string {
	if info == nil {
		return fallback
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		return mv
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	rev := settings["vcs.revision"]
	if rev == "" {
		return fallback
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	parts := []string{"devel", rev}
	if settings["vcs.modified"] == "true" {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "+")
}
