package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/mcp"
)

func strptr(s string) *string { return &s }

func TestNormalizeContent_Text(t *testing.T) {
	item, err := normalizeContent(mcp.Content{Type: mcp.ContentTypeText, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "text", item.Type)
	require.NotNil(t, item.Text)
	assert.Equal(t, "hello", *item.Text)
	assert.Nil(t, item.Data)
	assert.Nil(t, item.MimeType)
}

func TestNormalizeContent_ImageAndAudio(t *testing.T) {
	for _, typ := range []string{mcp.ContentTypeImage, mcp.ContentTypeAudio} {
		item, err := normalizeContent(mcp.Content{
			Type:     typ,
			Data:     "aGVsbG8=",
			MIMEType: "application/octet-stream",
		})
		require.NoError(t, err)
		assert.Equal(t, typ, item.Type)
		require.NotNil(t, item.Data)
		assert.Equal(t, "aGVsbG8=", *item.Data)
		require.NotNil(t, item.MimeType)
		assert.Equal(t, "application/octet-stream", *item.MimeType)
		assert.Nil(t, item.Text)
	}
}

func TestNormalizeContent_ResourceText(t *testing.T) {
	item, err := normalizeContent(mcp.Content{
		Type: mcp.ContentTypeResource,
		Resource: &mcp.ResourceContents{
			URI:      "file:///doc.txt",
			MIMEType: "text/plain",
			Text:     strptr("contents"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "resource", item.Type)
	require.NotNil(t, item.Text)
	assert.Equal(t, "contents", *item.Text)
	assert.Nil(t, item.Data)
	require.NotNil(t, item.MimeType)
	assert.Equal(t, "text/plain", *item.MimeType)
}

func TestNormalizeContent_ResourceBlob(t *testing.T) {
	item, err := normalizeContent(mcp.Content{
		Type: mcp.ContentTypeResource,
		Resource: &mcp.ResourceContents{
			URI:  "file:///doc.bin",
			Blob: strptr("YmxvYg=="),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, item.Data)
	assert.Equal(t, "YmxvYg==", *item.Data)
	assert.Nil(t, item.Text)
}

func TestNormalizeContent_ResourceInvalid(t *testing.T) {
	_, err := normalizeContent(mcp.Content{Type: mcp.ContentTypeResource})
	require.Error(t, err)

	_, err = normalizeContent(mcp.Content{
		Type:     mcp.ContentTypeResource,
		Resource: &mcp.ResourceContents{URI: "file:///empty"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither text nor blob")
}

func TestNormalizeContent_ResourceLink(t *testing.T) {
	item, err := normalizeContent(mcp.Content{
		Type:     mcp.ContentTypeResourceLink,
		URI:      "file:///linked.pdf",
		MIMEType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "resource_link", item.Type)
	require.NotNil(t, item.Text)
	assert.Equal(t, "file:///linked.pdf", *item.Text)
	require.NotNil(t, item.MimeType)
	assert.Equal(t, "application/pdf", *item.MimeType)
}

func TestNormalizeContent_UnknownType(t *testing.T) {
	_, err := normalizeContent(mcp.Content{Type: "hologram"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")
}

func TestNormalizeContents_Empty(t *testing.T) {
	out, err := normalizeContents(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNormalizeRole(t *testing.T) {
	role, err := normalizeRole("user")
	require.NoError(t, err)
	assert.Equal(t, "user", role)

	role, err = normalizeRole("assistant")
	require.NoError(t, err)
	assert.Equal(t, "assistant", role)

	_, err = normalizeRole("system")
	require.Error(t, err)
}

func TestNormalizeResourceContents(t *testing.T) {
	out := normalizeResourceContents([]mcp.ResourceContents{
		{URI: "file:///a.txt", MIMEType: "text/plain", Text: strptr("aaa")},
		{URI: "file:///b.bin", Blob: strptr("YmJi")},
	})
	require.Len(t, out, 2)

	require.NotNil(t, out[0].Text)
	assert.Equal(t, "aaa", *out[0].Text)
	assert.Nil(t, out[0].Blob)
	require.NotNil(t, out[0].MimeType)

	require.NotNil(t, out[1].Blob)
	assert.Equal(t, "YmJi", *out[1].Blob)
	assert.Nil(t, out[1].Text)
	assert.Nil(t, out[1].MimeType)
}

func TestNormalizePrompts_RequiredDefaultsFalse(t *testing.T) {
	out := normalizePrompts([]mcp.Prompt{{
		Name: "summarize",
		Arguments: []mcp.PromptArgument{
			{Name: "length"},
			{Name: "topic", Required: true},
		},
	}})
	require.Len(t, out, 1)
	require.Len(t, out[0].Arguments, 2)
	assert.False(t, out[0].Arguments[0].Required)
	assert.True(t, out[0].Arguments[1].Required)
}

func TestNormalizeMessages_BadRoleFails(t *testing.T) {
	_, err := normalizeMessages([]mcp.PromptMessage{{
		Role:    "system",
		Content: mcp.Content{Type: mcp.ContentTypeText, Text: "x"},
	}})
	require.Error(t, err)
}
