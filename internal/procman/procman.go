// Package procman runs MCP server processes without a protocol session on
// top. It predates the managed session path and remains for raw
// line-oriented messaging against a server's stdio.
package procman

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// Status is the runtime state of one managed process.
type Status struct {
	ID     string   `json:"id"`
	Status string   `json:"status"` // running, stopped, error
	PID    *int     `json:"pid,omitempty"`
	Error  *string  `json:"error,omitempty"`
	Tools  []string `json:"tools"`
}

type process struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// wait reaps the child once, from whichever caller observes it first.
func (p *process) wait() {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	})
}

// StartConfig is what procman needs to launch a process.
type StartConfig struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Manager owns a set of raw server processes keyed by server id.
type Manager struct {
	mu        sync.Mutex
	processes map[string]*process
	statuses  map[string]Status
	logger    *log.Logger
}

// NewManager creates an empty process manager.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		processes: make(map[string]*process),
		statuses:  make(map[string]Status),
		logger:    logger,
	}
}

// Start launches a stdio server process and tracks it. Non-stdio
// configurations cannot be started natively.
func (m *Manager) Start(cfg StartConfig) (Status, error) {
	const op = "procman.Manager.Start"

	if cfg.Type != "stdio" {
		return Status{}, errors.UnsupportedTransport(op,
			"only stdio servers can be started natively")
	}
	if cfg.Command == "" {
		return Status{}, errors.Validation(op, "no command specified for stdio server")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.processes[cfg.ID]; ok {
		return Status{}, errors.AlreadyConnected(op, "server "+cfg.ID+" is already running")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...) // #nosec G204 -- command comes from user-managed server config
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Status{}, errors.SpawnWrap(err, op, "failed to open stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Status{}, errors.SpawnWrap(err, op, "failed to open stdout pipe")
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Status{}, errors.SpawnWrap(err, op,
			fmt.Sprintf("failed to start server %q", cfg.Name))
	}

	pid := cmd.Process.Pid
	status := Status{
		ID:     cfg.ID,
		Status: "running",
		PID:    &pid,
		Tools:  []string{},
	}

	proc := &process{
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdin),
		stdout: bufio.NewReader(stdout),
		exited: make(chan struct{}),
	}
	m.processes[cfg.ID] = proc
	m.statuses[cfg.ID] = status
	go proc.wait()

	m.logger.Info("server process started", "name", cfg.Name, "pid", pid)
	return status, nil
}

// Stop kills a managed process and forgets it. Stopping an unknown id is a
// no-op, matching teardown being callable repeatedly.
func (m *Manager) Stop(id string) error {
	const op = "procman.Manager.Stop"

	m.mu.Lock()
	defer m.mu.Unlock()

	if proc, ok := m.processes[id]; ok {
		delete(m.processes, id)
		if err := proc.cmd.Process.Kill(); err != nil {
			delete(m.statuses, id)
			return errors.IOWrap(err, op, "failed to kill process")
		}
		m.logger.Info("server process stopped", "id", id)
	}
	delete(m.statuses, id)
	return nil
}

// Statuses reports all tracked processes, observing exits since the last
// call. An exited process is reported stopped once and dropped from tracking.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, proc := range m.processes {
		select {
		case <-proc.exited:
		default:
			continue
		}

		status := m.statuses[id]
		status.Status = "stopped"
		status.PID = nil
		if proc.waitErr != nil {
			msg := "process exited with: " + proc.waitErr.Error()
			status.Error = &msg
		}
		m.statuses[id] = status
		delete(m.processes, id)
	}

	out := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		out = append(out, status)
	}
	return out
}

// Send writes one line to a process's stdin and reads one line from its
// stdout. No timeout is applied; peers that never answer block the caller.
func (m *Manager) Send(id, message string) (string, error) {
	const op = "procman.Manager.Send"

	m.mu.Lock()
	proc, ok := m.processes[id]
	m.mu.Unlock()
	if !ok {
		return "", errors.NotFoundf(op, "server %q not found", id)
	}

	if _, err := proc.stdin.WriteString(message + "\n"); err != nil {
		return "", errors.IOWrap(err, op, "failed to write to stdin")
	}
	if err := proc.stdin.Flush(); err != nil {
		return "", errors.IOWrap(err, op, "failed to flush stdin")
	}

	line, err := proc.stdout.ReadString('\n')
	if err != nil {
		return "", errors.IOWrap(err, op, "failed to read from stdout")
	}
	return strings.TrimSpace(line), nil
}

// StopAll stops every tracked process.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.processes))
	for id := range m.processes {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Stop(id); err != nil {
			m.logger.Warn("failed to stop server process", "id", id, "error", err)
		}
	}
}
