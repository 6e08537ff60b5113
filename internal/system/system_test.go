package system

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestGetRuntimeInfo(t *testing.T) {
	info := GetRuntimeInfo()
	assert.Equal(t, Name, info.Name)
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.CurrentDir)
}

func TestRevealCommand(t *testing.T) {
	cmd := revealCommand("windows", `C:\docs\file.pdf`)
	require.NotNil(t, cmd)
	assert.Contains(t, cmd.Args[1], "/select,")

	cmd = revealCommand("darwin", "/docs/file.pdf")
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"open", "-R", "/docs/file.pdf"}, cmd.Args)

	// Linux opens the parent directory.
	cmd = revealCommand("linux", "/docs/file.pdf")
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"xdg-open", "/docs"}, cmd.Args)

	assert.Nil(t, revealCommand("plan9", "/docs/file.pdf"))
}
