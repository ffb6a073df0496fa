package version

import (
	"runtime/debug"
	"testing"
)

func TestEffectiveKeepsExplicitVersion(t *testing.T) {
	if got := Effective("v1.4.0"); got != "v1.4.0" {
		t.Errorf("Effective(v1.4.0) = %q", got)
	}
}

func TestFromBuildInfo(t *testing.T) {
	rev := "0123456789abcdef0123"
	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{"nil info", nil, "dev"},
		{"tagged install", &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}}, "v0.3.1"},
		{"devel without vcs", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "dev"},
		{"clean checkout", &debug.BuildInfo{
			Main:     debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: rev}},
		}, "devel+0123456789ab"},
		{"dirty checkout", &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, "devel+abc123+dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBuildInfo(tt.info, "dev"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
