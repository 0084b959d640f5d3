package bili

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []any
		want  string
	}{
		{
			name: "text and break",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": "hello"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_BR"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": "world"},
			},
			want: "hello\nworld",
		},
		{
			name: "mention keeps single at sign",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_AT", "text": "@somebody"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": " hi"},
			},
			want: "@somebody hi",
		},
		{
			name: "mention without at prefix",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_AT", "text": "somebody"},
			},
			want: "@somebody",
		},
		{
			name: "topic wrapped in hashes",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TOPIC", "text": "daily"},
			},
			want: "#daily#",
		},
		{
			name: "topic already wrapped",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TOPIC", "text": "#daily#"},
			},
			want: "#daily#",
		},
		{
			name: "topic with leading hash only",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TOPIC", "text": "#daily"},
			},
			want: "#daily#",
		},
		{
			name: "topic with trailing hash only",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_TOPIC", "text": "daily#"},
			},
			want: "#daily#",
		},
		{
			name: "emoji prefers text over icon",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_EMOJI", "emoji": map[string]any{"text": "[doge]", "icon_url": "http://x/doge.png"}},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_EMOJI", "emoji": map[string]any{"icon_url": "http://x/cry.png"}},
			},
			want: "[doge]http://x/cry.png",
		},
		{
			name: "link falls back text then orig_text then url",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_WEB", "text": "a link"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_BV", "orig_text": "BV1xx"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_LINK", "jump_url": "https://example.com"},
			},
			want: "a linkBV1xxhttps://example.com",
		},
		{
			name: "unknown node contributes its text",
			nodes: []any{
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_FUTURE", "text": "kept"},
				map[string]any{"type": "RICH_TEXT_NODE_TYPE_VOID"},
			},
			want: "kept",
		},
		{
			name:  "malformed entries ignored",
			nodes: []any{"not a map", 42, nil},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderNodes(tt.nodes))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\n\nb", cleanText("a\n\n\n\nb"))
	assert.Equal(t, "ab", cleanText("a\u200b\u200c\u200d\ufeffb"))
	assert.Equal(t, "x", cleanText("  x \n"))
	assert.Equal(t, "", cleanText("\u200b"))
}
