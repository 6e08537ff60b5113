package procman

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

func catConfig(id string) StartConfig {
	return StartConfig{
		ID:      id,
		Name:    "cat",
		Type:    "stdio",
		Command: "cat",
	}
}

func skipWithoutCat(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs the cat binary")
	}
}

func TestManager_StartAndStop(t *testing.T) {
	skipWithoutCat(t)
	m := NewManager(nil)

	status, err := m.Start(catConfig("s1"))
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	require.NotNil(t, status.PID)
	assert.Greater(t, *status.PID, 0)

	require.NoError(t, m.Stop("s1"))
	assert.Empty(t, m.Statuses())

	// Stopping an unknown id is a no-op.
	require.NoError(t, m.Stop("s1"))
}

func TestManager_Start_NonStdio(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(StartConfig{ID: "h", Type: "http", Command: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnsupportedTransport))
}

func TestManager_Start_MissingCommand(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(StartConfig{ID: "s", Type: "stdio"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestManager_Start_SpawnFailure(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(StartConfig{
		ID:      "bad",
		Name:    "bad",
		Type:    "stdio",
		Command: "definitely-not-a-real-binary-1234",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSpawn))
}

func TestManager_Start_Duplicate(t *testing.T) {
	skipWithoutCat(t)
	m := NewManager(nil)
	defer m.StopAll()

	_, err := m.Start(catConfig("dup"))
	require.NoError(t, err)

	_, err = m.Start(catConfig("dup"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyConnected))
}

func TestManager_Send(t *testing.T) {
	skipWithoutCat(t)
	m := NewManager(nil)
	defer m.StopAll()

	_, err := m.Start(catConfig("echo"))
	require.NoError(t, err)

	// cat echoes each line back.
	reply, err := m.Send("echo", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	_, err = m.Send("ghost", "hi")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestManager_Statuses_ObservesExit(t *testing.T) {
	skipWithoutCat(t)
	m := NewManager(nil)

	status, err := m.Start(catConfig("dying"))
	require.NoError(t, err)
	require.NotNil(t, status.PID)

	// Kill behind the manager's back and wait for the exit to be reaped.
	m.mu.Lock()
	proc := m.processes["dying"]
	m.mu.Unlock()
	require.NoError(t, proc.cmd.Process.Kill())

	select {
	case <-proc.exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process never exited")
	}

	statuses := m.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "stopped", statuses[0].Status)
	assert.Nil(t, statuses[0].PID)
	require.NotNil(t, statuses[0].Error)

	// The exited process is gone from tracking on the next call.
	m.mu.Lock()
	_, tracked := m.processes["dying"]
	m.mu.Unlock()
	assert.False(t, tracked)
}

func TestManager_StopAll(t *testing.T) {
	skipWithoutCat(t)
	m := NewManager(nil)

	_, err := m.Start(catConfig("a"))
	require.NoError(t, err)
	_, err = m.Start(catConfig("b"))
	require.NoError(t, err)

	m.StopAll()
	assert.Empty(t, m.Statuses())
}
