package bridge

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Platform describes the operating system the agent runs on.
type Platform interface {
	// Name is a display name such as "macOS", "Windows" or "ubuntu".
	Name() string
	// Version is the OS release, e.g. "14.2" or "22.04".
	Version() string
}

// StaticPlatform is a fixed Platform, useful in tests.
type StaticPlatform struct {
	OSName    string
	OSVersion string
}

func (p StaticPlatform) Name() string    { return p.OSName }
func (p StaticPlatform) Version() string { return p.OSVersion }

// HostPlatform reads the OS name and version from the host on every call.
type HostPlatform struct{}

func (HostPlatform) Name() string {
	info, err := host.Info()
	if err != nil {
		return osDisplayName(runtime.GOOS, "")
	}
	return osDisplayName(info.OS, info.Platform)
}

func (HostPlatform) Version() string {
	info, err := host.Info()
	if err != nil {
		return "unknown"
	}
	if info.PlatformVersion != "" {
		return info.PlatformVersion
	}
	return info.KernelVersion
}

func osDisplayName(goos, platform string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	case "linux":
		if platform != "" {
			return platform
		}
		return "Linux"
	case "":
		return "Unknown"
	default:
		if platform != "" {
			return platform
		}
		return strings.ToUpper(goos[:1]) + goos[1:]
	}
}

// describePlatform formats the diagnostic reply for unknown method calls.
func describePlatform(p Platform) string {
	return p.Name() + " " + p.Version()
}
