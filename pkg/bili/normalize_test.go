package bili

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver is a fixed uid -> name table for normalizer tests.
type stubResolver struct {
	names map[string]string
	puts  map[string]string
}

func newStubResolver(names map[string]string) *stubResolver {
	return &stubResolver{names: names, puts: map[string]string{}}
}

func (s *stubResolver) Resolve(_ context.Context, uid string) string { return s.names[uid] }
func (s *stubResolver) Put(uid, name string)                         { s.puts[uid] = name }

func mustJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestNormalizerItem(t *testing.T) {
	norm := NewNormalizer(newStubResolver(nil))
	ctx := context.Background()

	t.Run("text post with rich nodes", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000001",
			"type": "DYNAMIC_TYPE_WORD",
			"modules": {
				"module_author": {"name": "alice", "mid": 123, "pub_ts": 1700000100},
				"module_dynamic": {
					"desc": {"rich_text_nodes": [
						{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": "good morning"},
						{"type": "RICH_TEXT_NODE_TYPE_AT", "text": "@bob"}
					]}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		require.True(t, item.Usable())
		assert.Equal(t, "900000001", item.ID)
		assert.Equal(t, "alice", item.AuthorName)
		assert.Equal(t, int64(1700000100), item.PublishTS)
		assert.Equal(t, "good morning@bob", item.Text)
		assert.Empty(t, item.ImageURLs)
		assert.Equal(t, "https://t.bilibili.com/900000001", item.URL())
	})

	t.Run("draw post collects image urls", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000002",
			"modules": {
				"module_author": {"name": "alice"},
				"module_dynamic": {
					"desc": {"text": "three shots"},
					"major": {"type": "MAJOR_TYPE_DRAW", "draw": {"items": [
						{"src": "http://img/1.jpg"},
						{"src": "http://img/2.jpg"},
						{"src": "http://img/1.jpg"}
					]}}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "three shots", item.Text)
		assert.Equal(t, []string{"http://img/1.jpg", "http://img/2.jpg"}, item.ImageURLs)
	})

	t.Run("video post uses archive title and cover", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000003",
			"modules": {
				"module_author": {"name": "alice"},
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_ARCHIVE", "archive": {"title": "my video", "cover": "http://img/cover.jpg"}}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "my video", item.Text)
		assert.Equal(t, []string{"http://img/cover.jpg"}, item.ImageURLs)
	})

	t.Run("article with distinct summary", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000004",
			"modules": {
				"module_author": {"name": "alice"},
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_ARTICLE", "article": {
						"title": "headline", "desc": "lead paragraph",
						"covers": ["http://img/a.jpg", "http://img/b.jpg"]
					}}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "headline\nlead paragraph", item.Text)
		assert.Equal(t, []string{"http://img/a.jpg", "http://img/b.jpg"}, item.ImageURLs)
	})

	t.Run("article summary equal to title kept once", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000005",
			"modules": {
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_ARTICLE", "article": {"title": "same", "desc": "same"}}
				}
			}
		}`)
		assert.Equal(t, "same", norm.Item(ctx, raw).Text)
	})

	t.Run("opus with summary nodes and cover", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000006",
			"modules": {
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_OPUS", "opus": {
						"title": "notes",
						"summary": {"rich_text_nodes": [{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": "body"}]},
						"pics": [{"url": "http://img/p.jpg"}],
						"cover": "http://img/c.jpg"
					}}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "notes\nbody", item.Text)
		assert.Equal(t, []string{"http://img/p.jpg", "http://img/c.jpg"}, item.ImageURLs)
	})

	t.Run("live block from embedded json string", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000007",
			"modules": {
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_LIVE_RCMD", "live_rcmd": {
						"content": "{\"live_play_info\":{\"title\":\"late night\",\"room_id\":4321}}"
					}}
				}
			}
		}`)
		assert.Equal(t, "late night\nroom 4321", norm.Item(ctx, raw).Text)
	})

	t.Run("season block with subtitle", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000008",
			"modules": {
				"module_dynamic": {
					"major": {"type": "MAJOR_TYPE_PGC", "pgc": {
						"title": "ep 12", "sub_title": "finale", "cover": "http://img/s.jpg"
					}}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "ep 12\nfinale", item.Text)
		assert.Equal(t, []string{"http://img/s.jpg"}, item.ImageURLs)
	})

	t.Run("list of modules folded by discriminator", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000009",
			"modules": [
				{"module_author": {"name": "alice", "pub_ts": 42}},
				{"module_dynamic": {"desc": {"text": "folded"}}}
			]
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "alice", item.AuthorName)
		assert.Equal(t, int64(42), item.PublishTS)
		assert.Equal(t, "folded", item.Text)
	})

	t.Run("historic module aliases", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000010",
			"modules": {
				"author": {"name": "alice"},
				"desc": {"text": "aliased"}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.Equal(t, "alice", item.AuthorName)
		assert.Equal(t, "aliased", item.Text)
	})

	t.Run("id from basic block", func(t *testing.T) {
		raw := mustJSON(t, `{"basic": {"rid_str": "777"}, "modules": {"module_dynamic": {"desc": {"text": "x"}}}}`)
		assert.Equal(t, "777", norm.Item(ctx, raw).ID)
	})

	t.Run("malformed payload degrades to placeholder", func(t *testing.T) {
		raw := mustJSON(t, `{"id_str": "900000011", "modules": "garbage"}`)
		item := norm.Item(ctx, raw)
		assert.True(t, item.Usable())
		assert.Equal(t, "(no text content)", item.Text)
	})

	t.Run("image-only item gets image placeholder", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000012",
			"modules": {"module_dynamic": {"major": {"type": "MAJOR_TYPE_DRAW", "draw": {"items": [
				{"src": "http://img/only.jpg"}
			]}}}}
		}`)
		assert.Equal(t, "[Image set] 1 images", norm.Item(ctx, raw).Text)
	})

	t.Run("video without title gets video placeholder", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000013",
			"modules": {"module_dynamic": {"major": {"type": "MAJOR_TYPE_ARCHIVE", "archive": {}}}}
		}`)
		assert.Equal(t, "[Video]", norm.Item(ctx, raw).Text)
	})

	t.Run("sequence-wrapped major normalizes like the bare form", func(t *testing.T) {
		bare := mustJSON(t, `{
			"id_str": "900000014",
			"modules": {"module_dynamic": {
				"major": {"type": "MAJOR_TYPE_ARCHIVE", "archive": {"cover": "http://img/cover.jpg"}}
			}}
		}`)
		wrapped := mustJSON(t, `{
			"id_str": "900000014",
			"modules": {"module_dynamic": {
				"major": [{"type": "MAJOR_TYPE_ARCHIVE", "archive": {"cover": "http://img/cover.jpg"}}]
			}}
		}`)

		bareItem := norm.Item(ctx, bare)
		wrappedItem := norm.Item(ctx, wrapped)
		assert.Equal(t, "[Video]", bareItem.Text)
		assert.Equal(t, bareItem.Text, wrappedItem.Text)
		assert.Equal(t, bareItem.ImageURLs, wrappedItem.ImageURLs)
	})
}

func TestNormalizerAuthorName(t *testing.T) {
	ctx := context.Background()

	t.Run("direct name seeds the resolver cache", func(t *testing.T) {
		resolver := newStubResolver(nil)
		norm := NewNormalizer(resolver)
		name := norm.authorName(ctx, map[string]any{"name": "alice", "mid": "123"})
		assert.Equal(t, "alice", name)
		assert.Equal(t, "alice", resolver.puts["123"])
	})

	t.Run("nested user object", func(t *testing.T) {
		norm := NewNormalizer(nil)
		name := norm.authorName(ctx, map[string]any{"user": map[string]any{"name": "bob"}})
		assert.Equal(t, "bob", name)
	})

	t.Run("resolver lookup by mid", func(t *testing.T) {
		norm := NewNormalizer(newStubResolver(map[string]string{"456": "carol"}))
		name := norm.authorName(ctx, map[string]any{"mid": float64(456)})
		assert.Equal(t, "carol", name)
	})

	t.Run("uid literal fallback", func(t *testing.T) {
		norm := NewNormalizer(newStubResolver(nil))
		name := norm.authorName(ctx, map[string]any{"mid": "789"})
		assert.Equal(t, "UID:789", name)
	})
}

func TestNormalizerForward(t *testing.T) {
	norm := NewNormalizer(nil)
	ctx := context.Background()

	t.Run("forward embeds original text and images", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000020",
			"type": "DYNAMIC_TYPE_FORWARD",
			"modules": {
				"module_author": {"name": "alice"},
				"module_dynamic": {"desc": {"text": "check this out"}}
			},
			"orig": {
				"id_str": "899999999",
				"modules": {
					"module_author": {"name": "bob"},
					"module_dynamic": {
						"desc": {"text": "original post"},
						"major": {"type": "MAJOR_TYPE_DRAW", "draw": {"items": [{"src": "http://img/orig.jpg"}]}}
					}
				}
			}
		}`)

		item := norm.Item(ctx, raw)
		assert.True(t, item.IsForward)
		assert.Equal(t, "bob", item.ForwardAuthor)
		assert.Equal(t, "original post", item.ForwardText)
		assert.Contains(t, item.Text, "check this out")
		assert.Contains(t, item.Text, "↻ @bob:\noriginal post")
		assert.Equal(t, []string{"http://img/orig.jpg"}, item.ImageURLs)
	})

	t.Run("deleted original", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000021",
			"type": "DYNAMIC_TYPE_FORWARD",
			"modules": {"module_dynamic": {"desc": {"text": "rip"}}},
			"orig": {"type": "DYNAMIC_TYPE_NONE"}
		}`)

		item := norm.Item(ctx, raw)
		assert.True(t, item.IsForward)
		assert.Contains(t, item.Text, "(original removed)")
	})

	t.Run("legacy origin as json string", func(t *testing.T) {
		raw := mustJSON(t, `{
			"id_str": "900000022",
			"type": "DYNAMIC_TYPE_FORWARD",
			"modules": {"module_dynamic": {"desc": {"text": "fwd"}}},
			"origin": "{\"modules\":{\"module_author\":{\"name\":\"bob\"},\"module_dynamic\":{\"desc\":{\"text\":\"embedded\"}}}}"
		}`)

		item := norm.Item(ctx, raw)
		assert.True(t, item.IsForward)
		assert.Equal(t, "bob", item.ForwardAuthor)
		assert.Equal(t, "embedded", item.ForwardText)
	})
}

func TestPlainSummary(t *testing.T) {
	norm := NewNormalizer(nil)
	assert.Equal(t, "plain", norm.plainSummary("plain"))
	assert.Equal(t, "bold move", norm.plainSummary("<b>bold</b> move"))
	assert.Equal(t, "a & b", norm.plainSummary("a &amp; b"))
}

func TestHelpers(t *testing.T) {
	t.Run("str handles numbers", func(t *testing.T) {
		m := map[string]any{"a": "s", "b": float64(42), "c": float64(1.5), "d": json.Number("99")}
		assert.Equal(t, "s", str(m, "a"))
		assert.Equal(t, "42", str(m, "b"))
		assert.Equal(t, "1.5", str(m, "c"))
		assert.Equal(t, "99", str(m, "d"))
		assert.Equal(t, "", str(m, "missing"))
	})

	t.Run("integer conversions", func(t *testing.T) {
		m := map[string]any{"a": float64(7), "b": "13", "c": "nope"}
		assert.Equal(t, int64(7), integer(m, "a"))
		assert.Equal(t, int64(13), integer(m, "b"))
		assert.Equal(t, int64(0), integer(m, "c"))
	})

	t.Run("dedup preserves order", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, dedupURLs([]string{"a", "b", "a", "", "b"}))
		assert.Nil(t, dedupURLs(nil))
	})

	t.Run("coercion guards never panic", func(t *testing.T) {
		assert.Empty(t, asMap("scalar"))
		assert.Empty(t, asMap(nil))
		assert.Nil(t, asList("scalar"))
		assert.Nil(t, asList(nil))
	})
}
