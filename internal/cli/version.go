package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/aidanlsb/nbfix/internal/buildinfo"
)

type versionInfo struct {
	Version    string
	Commit     string
	CommitTime string
	Modified   bool
	GoVersion  string
	GOOS       string
	GOARCH     string
}

var readBuildInfo = debug.ReadBuildInfo

// String renders the version line printed by --version.
func (v versionInfo) String() string {
	var b strings.Builder
	b.WriteString(v.Version)
	if v.Commit != "" {
		commit := v.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if v.Modified {
			commit += "-dirty"
		}
		fmt.Fprintf(&b, " (%s", commit)
		if v.CommitTime != "" {
			fmt.Fprintf(&b, ", %s", v.CommitTime)
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, " %s %s/%s", v.GoVersion, v.GOOS, v.GOARCH)
	return b.String()
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   "devel",
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
	}

	buildInfo, ok := readBuildInfo()
	if !ok || buildInfo == nil {
		applyLdflagsFallback(&info)
		return info
	}

	info.Version = normalizeVersion(buildInfo.Main.Version)
	if buildInfo.GoVersion != "" {
		info.GoVersion = buildInfo.GoVersion
	}
	if val := buildSetting(buildInfo, "GOOS"); val != "" {
		info.GOOS = val
	}
	if val := buildSetting(buildInfo, "GOARCH"); val != "" {
		info.GOARCH = val
	}
	info.Commit = buildSetting(buildInfo, "vcs.revision")
	info.CommitTime = buildSetting(buildInfo, "vcs.time")
	info.Modified = strings.EqualFold(buildSetting(buildInfo, "vcs.modified"), "true")
	applyLdflagsFallback(&info)

	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func buildSetting(info *debug.BuildInfo, key string) string {
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func applyLdflagsFallback(info *versionInfo) {
	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" && buildinfo.Commit != "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" && buildinfo.Date != "" {
		info.CommitTime = buildinfo.Date
	}
}
