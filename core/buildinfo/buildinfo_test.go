package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfoFillsUnstampedFields(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2025-06-01T10:00:00Z"},
		},
	}
	got := fromBuildInfo(Info{Version: "dev", Commit: "local"}, bi)
	if got.Version != "v0.3.0" || got.Commit != "0123456789ab" || got.Date != "2025-06-01T10:00:00Z" {
		t.Fatalf("info = %+v", got)
	}
}

func TestFromBuildInfoKeepsStampedFields(t *testing.T) {
	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}
	in := Info{Version: "v1.0.0", Commit: "abc1234", Date: "2025-01-01T00:00:00Z"}
	if got := fromBuildInfo(in, bi); got != in {
		t.Fatalf("stamped info overwritten: %+v", got)
	}
}
