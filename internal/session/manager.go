package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/mcp"
)

// clientSession is one live registry entry. The peer handle is exclusively
// owned by the registry; dispatched operations borrow it under the read lock
// for the duration of a single call.
type clientSession struct {
	serverID   string
	serverName string
	peer       Peer
	init       *mcp.InitializeResult
}

func (s *clientSession) info() ClientInfo {
	return ClientInfo{
		ServerID:        s.serverID,
		ServerName:      s.serverName,
		ProtocolVersion: extractProtocolVersion(s.init),
		Capabilities:    extractCapabilities(s.init),
		Status:          StatusConnected,
	}
}

// Manager is the session registry plus its operation dispatch. Connect and
// disconnect take the write lock; every dispatched operation holds the read
// lock across the whole remote round trip, because an entry's peer handle is
// only valid while the lock is held. Slow remote calls therefore delay
// registry mutation, but never each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*clientSession
	dialing  map[string]struct{}

	connector Connector
	logger    *log.Logger
}

// NewManager creates a registry that dials servers through the given
// connector.
func NewManager(connector Connector, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		sessions:  make(map[string]*clientSession),
		dialing:   make(map[string]struct{}),
		connector: connector,
		logger:    logger,
	}
}

// Connect spawns and handshakes a new server session under the given id.
// The id is reserved before dialing starts, so two concurrent connects for
// the same id cannot both succeed and the dial happens outside the lock.
func (m *Manager) Connect(ctx context.Context, serverID, serverName, command string, args []string, env map[string]string) (ClientInfo, error) {
	const op = "session.Manager.Connect"

	m.mu.Lock()
	if _, ok := m.sessions[serverID]; ok {
		m.mu.Unlock()
		return ClientInfo{}, errors.AlreadyConnected(op, "server "+serverID+" is already connected")
	}
	if _, ok := m.dialing[serverID]; ok {
		m.mu.Unlock()
		return ClientInfo{}, errors.AlreadyConnected(op, "server "+serverID+" is already connecting")
	}
	m.dialing[serverID] = struct{}{}
	m.mu.Unlock()

	peer, init, err := m.connector.Dial(ctx, command, args, env)

	m.mu.Lock()
	delete(m.dialing, serverID)
	if err != nil {
		m.mu.Unlock()
		return ClientInfo{}, err
	}
	sess := &clientSession{
		serverID:   serverID,
		serverName: serverName,
		peer:       peer,
		init:       init,
	}
	m.sessions[serverID] = sess
	m.mu.Unlock()

	m.logger.Info("connected to server",
		"serverId", serverID,
		"serverName", serverName,
		"protocolVersion", init.ProtocolVersion,
	)

	return sess.info(), nil
}

// ConnectFromConfig connects using a persisted server record. Only stdio
// records are dialable through this path; the transport type is validated
// before any process is spawned.
func (m *Manager) ConnectFromConfig(ctx context.Context, cfg ServerConfig) (ClientInfo, error) {
	const op = "session.Manager.ConnectFromConfig"

	if cfg.Type != "stdio" {
		return ClientInfo{}, errors.UnsupportedTransport(op,
			"server type "+cfg.Type+" is not supported; only stdio servers can be connected")
	}
	if cfg.Command == "" {
		return ClientInfo{}, errors.New(errors.KindValidation, "stdio server config has no command")
	}

	return m.Connect(ctx, cfg.ID, cfg.Name, cfg.Command, cfg.Args, cfg.Env)
}

// Disconnect removes the session and then closes its peer. Removal happens
// first, so the id is free for reconnection even if the close is slow.
func (m *Manager) Disconnect(serverID string) error {
	const op = "session.Manager.Disconnect"

	m.mu.Lock()
	sess, ok := m.sessions[serverID]
	if !ok {
		m.mu.Unlock()
		return errors.NotFoundf(op, "no session for server %s", serverID)
	}
	delete(m.sessions, serverID)
	m.mu.Unlock()

	if err := sess.peer.Close(); err != nil {
		return errors.Wrapf(err, errors.KindIO, op, "failed to close session for server %s", serverID)
	}

	m.logger.Info("disconnected from server", "serverId", serverID)
	return nil
}

// DisconnectAll drains the registry, then closes every removed session. A
// close failure is logged and does not block teardown of the others; the
// call never fails once the drain has happened.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	drained := make([]*clientSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		drained = append(drained, sess)
	}
	m.sessions = make(map[string]*clientSession)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range drained {
		wg.Add(1)
		go func(sess *clientSession) {
			defer wg.Done()
			if err := sess.peer.Close(); err != nil {
				m.logger.Warn("failed to close session during teardown",
					"serverId", sess.serverID, "error", err)
			}
		}(sess)
	}
	wg.Wait()
}

// ConnectedClients returns a snapshot of all live sessions.
func (m *Manager) ConnectedClients() []ClientInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ClientInfo, 0, len(m.sessions))
	for _, sess := range m.sessions {
		infos = append(infos, sess.info())
	}
	return infos
}

// ListTools returns the tool catalog of one connected server. An empty
// catalog is an empty slice, not an error.
func (m *Manager) ListTools(ctx context.Context, serverID string) ([]ToolInfo, error) {
	const op = "session.Manager.ListTools"

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	tools, err := sess.peer.ListTools(ctx)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "tools/list failed")
	}
	return normalizeTools(tools), nil
}

// CallTool invokes a tool on one connected server. Arguments must be a JSON
// object; any other shape (array, scalar, null) is coerced to no arguments
// rather than rejected.
func (m *Manager) CallTool(ctx context.Context, serverID, toolName string, arguments any) (*ToolCallResult, error) {
	const op = "session.Manager.CallTool"

	args, _ := arguments.(map[string]any)

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	result, err := sess.peer.CallTool(ctx, toolName, args)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "tools/call failed")
	}

	content, err := normalizeContents(result.Content)
	if err != nil {
		return nil, err
	}
	return &ToolCallResult{
		Success: true,
		Content: content,
		IsError: result.IsError,
	}, nil
}

// ListResources returns the resource catalog of one connected server.
func (m *Manager) ListResources(ctx context.Context, serverID string) ([]ResourceInfo, error) {
	const op = "session.Manager.ListResources"

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	resources, err := sess.peer.ListResources(ctx)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "resources/list failed")
	}
	return normalizeResources(resources), nil
}

// ReadResource reads one resource URI from a connected server. A server may
// return multiple content entries for a single URI.
func (m *Manager) ReadResource(ctx context.Context, serverID, uri string) (*ReadResourceResult, error) {
	const op = "session.Manager.ReadResource"

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	result, err := sess.peer.ReadResource(ctx, uri)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "resources/read failed")
	}
	return &ReadResourceResult{
		Contents: normalizeResourceContents(result.Contents),
	}, nil
}

// ListPrompts returns the prompt catalog of one connected server.
func (m *Manager) ListPrompts(ctx context.Context, serverID string) ([]PromptInfo, error) {
	const op = "session.Manager.ListPrompts"

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	prompts, err := sess.peer.ListPrompts(ctx)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "prompts/list failed")
	}
	return normalizePrompts(prompts), nil
}

// GetPrompt resolves a prompt with string-valued arguments.
func (m *Manager) GetPrompt(ctx context.Context, serverID, promptName string, arguments map[string]string) (*GetPromptResult, error) {
	const op = "session.Manager.GetPrompt"

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[serverID]
	if !ok {
		return nil, errors.NotFoundf(op, "no session for server %s", serverID)
	}

	result, err := sess.peer.GetPrompt(ctx, promptName, arguments)
	if err != nil {
		return nil, errors.RemoteCallWrap(err, op, "prompts/get failed")
	}

	messages, err := normalizeMessages(result.Messages)
	if err != nil {
		return nil, err
	}
	out := &GetPromptResult{Messages: messages}
	if result.Description != "" {
		desc := result.Description
		out.Description = &desc
	}
	return out, nil
}
