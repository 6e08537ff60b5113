package session

import "github.com/NJUPT-SAST-CXX/sast-readium-web/internal/mcp"

// extractCapabilities derives the capability flag set from a handshake
// result. A nil result yields all-false flags; a capability is advertised
// when its section is present, regardless of the section's contents.
func extractCapabilities(init *mcp.InitializeResult) ServerCapabilities {
	if init == nil {
		return ServerCapabilities{}
	}
	return ServerCapabilities{
		Tools:     init.Capabilities.Tools != nil,
		Resources: init.Capabilities.Resources != nil,
		Prompts:   init.Capabilities.Prompts != nil,
		Logging:   init.Capabilities.Logging != nil,
	}
}

// extractProtocolVersion pulls the negotiated protocol version out of a
// handshake result, if one was captured.
func extractProtocolVersion(init *mcp.InitializeResult) *string {
	if init == nil || init.ProtocolVersion == "" {
		return nil
	}
	v := init.ProtocolVersion
	return &v
}
