package bili

import (
	"regexp"
	"strings"
)

// renderNodes turns an ordered sequence of typed rich-text nodes into one
// string. Nodes are concatenated in order; the only separators are explicit
// line-break nodes.
func renderNodes(nodes []any) string {
	var b strings.Builder
	for _, raw := range nodes {
		node := asMap(raw)
		switch str(node, "type") {
		case "RICH_TEXT_NODE_TYPE_TEXT":
			b.WriteString(str(node, "text"))
		case "RICH_TEXT_NODE_TYPE_BR":
			b.WriteString("\n")
		case "RICH_TEXT_NODE_TYPE_AT":
			// node text carries the display name, with or without the @ prefix
			name := strings.TrimPrefix(str(node, "text"), "@")
			b.WriteString("@")
			b.WriteString(name)
		case "RICH_TEXT_NODE_TYPE_TOPIC":
			topic := str(node, "text")
			// half-wrapped values get normalized too, not just bare ones
			if len(topic) < 2 || !strings.HasPrefix(topic, "#") || !strings.HasSuffix(topic, "#") {
				topic = "#" + strings.Trim(topic, "#") + "#"
			}
			b.WriteString(topic)
		case "RICH_TEXT_NODE_TYPE_EMOJI":
			emoji := asMap(node["emoji"])
			if t := str(emoji, "text"); t != "" {
				b.WriteString(t)
			} else {
				b.WriteString(str(emoji, "icon_url"))
			}
		case "RICH_TEXT_NODE_TYPE_WEB", "RICH_TEXT_NODE_TYPE_BV", "RICH_TEXT_NODE_TYPE_LINK":
			if t := str(node, "text"); t != "" {
				b.WriteString(t)
			} else if t := str(node, "orig_text"); t != "" {
				b.WriteString(t)
			} else {
				b.WriteString(str(node, "jump_url"))
			}
		default:
			// unrecognized kinds still contribute their literal text, if any
			b.WriteString(str(node, "text"))
		}
	}
	return cleanText(b.String())
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	zeroWidth    = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "")
)

// cleanText collapses runs of 3+ newlines to 2 and strips zero-width
// characters. Applied to every extracted or rendered text fragment.
func cleanText(s string) string {
	s = zeroWidth.Replace(s)
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
