// Package system exposes host and runtime information plus small desktop
// integration helpers.
package system

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Name and Version identify this build. Version is overridden at link time.
const Name = "sast-readium-web"

var Version = "dev"

// Info describes the host platform.
type Info struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// RuntimeInfo describes this process.
type RuntimeInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	GoVersion  string `json:"goVersion"`
	ExePath    string `json:"exePath,omitempty"`
	CurrentDir string `json:"currentDir,omitempty"`
}

// GetInfo returns the host OS and architecture.
func GetInfo() Info {
	return Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// GetRuntimeInfo returns information about the running process. Lookup
// failures leave the corresponding field empty rather than failing the call.
func GetRuntimeInfo() RuntimeInfo {
	info := RuntimeInfo{
		Name:      Name,
		Version:   Version,
		GoVersion: runtime.Version(),
	}
	if exe, err := os.Executable(); err == nil {
		info.ExePath = exe
	}
	if dir, err := os.Getwd(); err == nil {
		info.CurrentDir = dir
	}
	return info
}

// RevealInFileManager opens the platform file manager with the given path
// selected (or its parent directory opened, where selection is not
// supported). Returns whether the file manager was launched.
func RevealInFileManager(path string) bool {
	cmd := revealCommand(runtime.GOOS, path)
	if cmd == nil {
		return false
	}
	return cmd.Start() == nil
}

func revealCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("explorer.exe", "/select,"+path)
	case "darwin":
		return exec.Command("open", "-R", path)
	case "linux":
		dir := filepath.Dir(path)
		return exec.Command("xdg-open", dir)
	default:
		return nil
	}
}
