package session

import (
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/mcp"
)

// normalizeContent maps one protocol content item onto the flat ContentItem
// representation. The switch covers every content family the protocol
// defines; an unrecognized type is a contract violation, not something to
// drop silently.
func normalizeContent(c mcp.Content) (ContentItem, error) {
	switch c.Type {
	case mcp.ContentTypeText:
		text := c.Text
		return ContentItem{Type: mcp.ContentTypeText, Text: &text}, nil

	case mcp.ContentTypeImage, mcp.ContentTypeAudio:
		data := c.Data
		item := ContentItem{Type: c.Type, Data: &data}
		if c.MIMEType != "" {
			mime := c.MIMEType
			item.MimeType = &mime
		}
		return item, nil

	case mcp.ContentTypeResource:
		if c.Resource == nil {
			return ContentItem{}, errors.New(errors.KindRemoteCall,
				"resource content item has no embedded resource")
		}
		item := ContentItem{Type: mcp.ContentTypeResource}
		switch {
		case c.Resource.Text != nil:
			item.Text = c.Resource.Text
		case c.Resource.Blob != nil:
			item.Data = c.Resource.Blob
		default:
			return ContentItem{}, errors.New(errors.KindRemoteCall,
				"embedded resource carries neither text nor blob")
		}
		if c.Resource.MIMEType != "" {
			mime := c.Resource.MIMEType
			item.MimeType = &mime
		}
		return item, nil

	case mcp.ContentTypeResourceLink:
		// Links normalize with the URI in the text slot.
		uri := c.URI
		item := ContentItem{Type: mcp.ContentTypeResourceLink, Text: &uri}
		if c.MIMEType != "" {
			mime := c.MIMEType
			item.MimeType = &mime
		}
		return item, nil

	default:
		return ContentItem{}, errors.Newf(errors.KindRemoteCall,
			"unknown content type %q", c.Type)
	}
}

// normalizeContents maps a content sequence, preserving order. A nil input
// yields an empty, non-nil slice so callers always serialize an array.
func normalizeContents(items []mcp.Content) ([]ContentItem, error) {
	out := make([]ContentItem, 0, len(items))
	for _, c := range items {
		item, err := normalizeContent(c)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// normalizeRole maps a prompt-message role. The protocol defines exactly two
// roles at this layer; anything else is a hard error rather than a silent
// default.
func normalizeRole(role string) (string, error) {
	switch role {
	case mcp.RoleUser:
		return mcp.RoleUser, nil
	case mcp.RoleAssistant:
		return mcp.RoleAssistant, nil
	default:
		return "", errors.Newf(errors.KindRemoteCall, "unknown prompt role %q", role)
	}
}

// normalizeResourceContents maps raw resource contents entries, keeping the
// text/blob branch exclusivity intact.
func normalizeResourceContents(contents []mcp.ResourceContents) []ResourceContent {
	out := make([]ResourceContent, 0, len(contents))
	for _, rc := range contents {
		entry := ResourceContent{URI: rc.URI, Text: rc.Text, Blob: rc.Blob}
		if rc.MIMEType != "" {
			mime := rc.MIMEType
			entry.MimeType = &mime
		}
		out = append(out, entry)
	}
	return out
}

// normalizeTools projects the protocol tool catalog onto ToolInfo entries.
func normalizeTools(tools []mcp.Tool) []ToolInfo {
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		info := ToolInfo{Name: t.Name, Description: t.Description}
		if len(t.InputSchema) > 0 {
			info.InputSchema = t.InputSchema
		}
		out = append(out, info)
	}
	return out
}

func normalizeResources(resources []mcp.Resource) []ResourceInfo {
	out := make([]ResourceInfo, 0, len(resources))
	for _, r := range resources {
		out = append(out, ResourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MimeType:    r.MIMEType,
		})
	}
	return out
}

func normalizePrompts(prompts []mcp.Prompt) []PromptInfo {
	out := make([]PromptInfo, 0, len(prompts))
	for _, p := range prompts {
		info := PromptInfo{Name: p.Name, Description: p.Description}
		for _, a := range p.Arguments {
			info.Arguments = append(info.Arguments, PromptArgument{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		out = append(out, info)
	}
	return out
}

// normalizeMessages maps resolved prompt messages, failing on any message
// whose role or content violates the protocol contract.
func normalizeMessages(messages []mcp.PromptMessage) ([]PromptMessage, error) {
	out := make([]PromptMessage, 0, len(messages))
	for _, m := range messages {
		role, err := normalizeRole(m.Role)
		if err != nil {
			return nil, err
		}
		content, err := normalizeContent(m.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, PromptMessage{Role: role, Content: content})
	}
	return out, nil
}
