package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// Resolver resolves an author uid to a display name, "" when unknown.
type Resolver interface {
	Resolve(ctx context.Context, uid string) string
	Put(uid, name string)
}

// Normalizer turns heterogeneous raw feed items into domain.Item. It never
// fails on malformed input: any shape mismatch degrades to empty text or an
// empty image list.
type Normalizer struct {
	resolver Resolver
	sanitize *bluemonday.Policy
}

// NewNormalizer creates a normalizer. resolver may be nil; author names then
// fall back to the "UID:<id>" form directly.
func NewNormalizer(resolver Resolver) *Normalizer {
	return &Normalizer{resolver: resolver, sanitize: bluemonday.StrictPolicy()}
}

// Item normalizes one raw feed entry. The returned item may be unusable
// (empty id) when the payload carries no identifier; callers check Usable.
func (n *Normalizer) Item(ctx context.Context, raw map[string]any) *domain.Item {
	item := &domain.Item{ID: str(raw, "id_str")}
	if item.ID == "" {
		// historic shape kept the id on the basic block
		item.ID = str(asMap(raw["basic"]), "rid_str")
	}

	modules := foldModules(raw["modules"])
	dynamic := asMap(modules["module_dynamic"])
	author := asMap(modules["module_author"])

	item.AuthorName = n.authorName(ctx, author)
	item.PublishTS = integer(author, "pub_ts")

	major := dynamic["major"]
	text := joinNonEmpty("\n", n.descText(dynamic, asMap(modules["module_desc"])), n.majorText(major))
	item.ImageURLs = dedupURLs(majorImages(major))

	// forwarded items carry the content of the embedded original; the
	// wrapper's own images are ignored in favor of the forwarded ones
	if str(raw, "type") == "DYNAMIC_TYPE_FORWARD" {
		fwText, fwAuthor, fwImages := n.forwarded(ctx, raw)
		item.IsForward = true
		item.ForwardAuthor = fwAuthor
		item.ForwardText = fwText
		if fwAuthor != "" {
			text = joinNonEmpty("\n\n", text, fmt.Sprintf("↻ @%s:\n%s", fwAuthor, fwText))
		} else {
			text = joinNonEmpty("\n\n", text, fwText)
		}
		if len(fwImages) > 0 {
			item.ImageURLs = dedupURLs(fwImages)
		}
	}

	text = cleanText(text)
	if text == "" {
		text = placeholder(major, len(item.ImageURLs))
	}
	item.Text = text
	return item
}

// forwarded extracts author, text and images from the embedded original of a
// repost. A deleted original renders as a sentinel fragment, not a failure.
func (n *Normalizer) forwarded(ctx context.Context, raw map[string]any) (text, author string, images []string) {
	orig := asMap(raw["orig"])
	if len(orig) == 0 {
		// older schema embeds the original as a JSON string under "origin"
		if s := str(raw, "origin"); s != "" {
			var embedded map[string]any
			if err := json.Unmarshal([]byte(s), &embedded); err == nil {
				orig = embedded
			}
		}
	}
	if len(orig) == 0 {
		return "", "", nil
	}
	if str(orig, "type") == "DYNAMIC_TYPE_NONE" {
		return "(original removed)", "", nil
	}

	modules := foldModules(orig["modules"])
	dynamic := asMap(modules["module_dynamic"])
	author = n.authorName(ctx, asMap(modules["module_author"]))

	text = cleanText(joinNonEmpty("\n", n.descText(dynamic, asMap(modules["module_desc"])), n.majorText(dynamic["major"])))
	images = majorImages(dynamic["major"])
	return text, author, images
}

// authorName resolves a display name with the fixed fallback order: direct
// name field, nested user object, resolver lookup, "UID:<id>" literal.
// It always produces a non-empty string when a uid is present.
func (n *Normalizer) authorName(ctx context.Context, author map[string]any) string {
	if name := str(author, "name"); name != "" {
		if mid := str(author, "mid"); mid != "" && n.resolver != nil {
			n.resolver.Put(mid, name)
		}
		return name
	}
	if name := str(asMap(author["user"]), "name"); name != "" {
		return name
	}
	mid := str(author, "mid")
	if mid == "" {
		return ""
	}
	if n.resolver != nil {
		if name := n.resolver.Resolve(ctx, mid); name != "" {
			return name
		}
	}
	return "UID:" + mid
}

// descText extracts the free-form description: the content block's desc
// first, then the standalone description module some payload versions use.
// Plain text wins over rich-text nodes within each.
func (n *Normalizer) descText(dynamic, descModule map[string]any) string {
	for _, desc := range []map[string]any{asMap(dynamic["desc"]), descModule} {
		if t := str(desc, "text"); t != "" {
			return t
		}
		if nodes := asList(desc["rich_text_nodes"]); len(nodes) > 0 {
			return renderNodes(nodes)
		}
	}
	return ""
}

// majorText dispatches on the content-block kind, each kind contributing
// zero or more fragments joined with newline. A list of blocks recurses over
// each element.
func (n *Normalizer) majorText(raw any) string {
	if blocks := asList(raw); len(blocks) > 0 {
		parts := make([]string, 0, len(blocks))
		for _, b := range blocks {
			if t := n.majorText(b); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}

	major := asMap(raw)
	switch str(major, "type") {
	case "MAJOR_TYPE_ARTICLE":
		article := asMap(major["article"])
		title := str(article, "title")
		summary := n.plainSummary(str(article, "desc"))
		if summary != "" && summary != title {
			return joinNonEmpty("\n", title, summary)
		}
		return title

	case "MAJOR_TYPE_ARCHIVE":
		// title only, keeps video notifications short
		return str(asMap(major["archive"]), "title")

	case "MAJOR_TYPE_DRAW":
		return "" // images carry the content

	case "MAJOR_TYPE_OPUS":
		opus := asMap(major["opus"])
		parts := []string{str(opus, "title")}
		summary := asMap(opus["summary"])
		if t := n.plainSummary(str(summary, "text")); t != "" {
			parts = append(parts, t)
		} else if nodes := asList(summary["rich_text_nodes"]); len(nodes) > 0 {
			parts = append(parts, renderNodes(nodes))
		}
		if aux := str(opus, "jump_desc"); aux != "" {
			parts = append(parts, aux)
		}
		return joinNonEmpty("\n", parts...)

	case "MAJOR_TYPE_LIVE", "MAJOR_TYPE_LIVE_RCMD":
		live := liveBlock(major)
		title := str(live, "title")
		room := firstStr(live, "room_id", "roomid", "id")
		return joinNonEmpty("\n", title, prefixed("room ", room))

	case "MAJOR_TYPE_PGC", "MAJOR_TYPE_UGC_SEASON":
		return seasonText(major)
	}
	return ""
}

// seasonText handles long-form series and episode blocks: episode title with
// a fallback to the series title, plus a subtitle when distinct.
func seasonText(major map[string]any) string {
	block := asMap(major["pgc"])
	if len(block) == 0 {
		block = asMap(major["ugc_season"])
	}
	title := str(block, "title")
	if title == "" {
		title = str(asMap(block["season"]), "title")
	}
	sub := str(block, "sub_title")
	if sub != "" && sub != title {
		return joinNonEmpty("\n", title, sub)
	}
	return title
}

// liveBlock unwraps both live shapes: a direct "live" object and the
// recommendation variant whose payload is a JSON string.
func liveBlock(major map[string]any) map[string]any {
	if live := asMap(major["live"]); len(live) > 0 {
		return live
	}
	rcmd := asMap(major["live_rcmd"])
	content := str(rcmd, "content")
	if content == "" {
		return rcmd
	}
	var parsed struct {
		LivePlayInfo map[string]any `json:"live_play_info"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return rcmd
	}
	return parsed.LivePlayInfo
}

// majorImages extracts image URLs independently of text, dispatching on the
// same kind discriminator.
func majorImages(raw any) []string {
	if blocks := asList(raw); len(blocks) > 0 {
		var urls []string
		for _, b := range blocks {
			urls = append(urls, majorImages(b)...)
		}
		return urls
	}

	major := asMap(raw)
	switch str(major, "type") {
	case "MAJOR_TYPE_DRAW":
		var urls []string
		for _, it := range asList(asMap(major["draw"])["items"]) {
			if src := str(asMap(it), "src"); src != "" {
				urls = append(urls, src)
			}
		}
		return urls

	case "MAJOR_TYPE_OPUS":
		opus := asMap(major["opus"])
		var urls []string
		for _, p := range asList(opus["pics"]) {
			if u := str(asMap(p), "url"); u != "" {
				urls = append(urls, u)
			}
		}
		if cover := str(opus, "cover"); cover != "" {
			urls = append(urls, cover)
		}
		return urls

	case "MAJOR_TYPE_ARTICLE":
		var urls []string
		for _, c := range asList(asMap(major["article"])["covers"]) {
			if u, ok := c.(string); ok && u != "" {
				urls = append(urls, u)
			}
		}
		return urls

	case "MAJOR_TYPE_ARCHIVE":
		return coverOf(asMap(major["archive"]))
	case "MAJOR_TYPE_PGC":
		return coverOf(asMap(major["pgc"]))
	case "MAJOR_TYPE_UGC_SEASON":
		return coverOf(asMap(major["ugc_season"]))
	}
	return nil
}

// coverOf returns the first present of the known cover-field names.
func coverOf(block map[string]any) []string {
	if u := firstStr(block, "cover", "pic", "first_frame", "squared_cover"); u != "" {
		return []string{u}
	}
	return nil
}

// placeholder substitutes text for items whose full extraction came back
// empty. A sequence-wrapped major dispatches on its first element, matching
// how majorText and majorImages recurse.
func placeholder(rawMajor any, imageCount int) string {
	if list := asList(rawMajor); len(list) > 0 {
		return placeholder(list[0], imageCount)
	}

	major := asMap(rawMajor)
	switch str(major, "type") {
	case "MAJOR_TYPE_LIVE", "MAJOR_TYPE_LIVE_RCMD":
		title := str(liveBlock(major), "title")
		return cleanText("[Live] " + title)
	case "MAJOR_TYPE_ARCHIVE", "MAJOR_TYPE_PGC", "MAJOR_TYPE_UGC_SEASON":
		return "[Video]"
	}
	if imageCount > 0 {
		return fmt.Sprintf("[Image set] %d images", imageCount)
	}
	return "(no text content)"
}

// plainSummary strips stray HTML markup that article and opus summaries
// sometimes carry, especially on the page-scrape path.
func (n *Normalizer) plainSummary(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(n.sanitize.Sanitize(s))
}

// foldModules accepts both upstream module shapes: a mapping already keyed
// by module names (including historic aliases) and a sequence of typed
// entries folded by discriminator. Unknown discriminators are ignored.
func foldModules(raw any) map[string]any {
	out := map[string]any{}

	if list := asList(raw); len(list) > 0 {
		for _, e := range list {
			entry := asMap(e)
			for _, key := range []string{"module_author", "module_dynamic", "module_desc", "module_tag"} {
				if v, ok := entry[key]; ok {
					out[canonicalModule(key)] = v
				}
			}
		}
		return out
	}

	m := asMap(raw)
	for key, v := range m {
		out[canonicalModule(key)] = v
	}
	return out
}

// canonicalModule maps historic module-name variants onto the four logical
// keys: author, description, content block, tag.
func canonicalModule(key string) string {
	switch key {
	case "author", "module_author":
		return "module_author"
	case "desc", "module_desc":
		return "module_desc"
	case "dynamic", "module_dynamic":
		return "module_dynamic"
	case "tag", "module_tag":
		return "module_tag"
	}
	return key
}

// asMap coerces a value to a mapping, defaulting to empty on any other
// shape. Guards every access point against scalars, nulls and lists.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// asList coerces a value to a sequence, defaulting to empty.
func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

// str reads a string field, converting json numbers to their decimal form.
func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return trimFloat(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// firstStr returns the first non-empty of the listed fields.
func firstStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := str(m, k); v != "" {
			return v
		}
	}
	return ""
}

// integer reads a numeric field as int64, 0 when absent or malformed.
func integer(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
	case string:
		var i int64
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return 0
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// dedupURLs removes duplicates preserving first-seen order.
func dedupURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}
