package bili

import (
	"context"
	"encoding/json"

	"github.com/pashkov/biliwatch/pkg/domain"
)

// LegacyCard normalizes one pre-polymer space-history card into the same
// canonical shape the polymer path produces. The card payload itself is an
// embedded JSON string; malformed payloads degrade to empty text, not
// errors.
func (n *Normalizer) LegacyCard(ctx context.Context, raw map[string]any) *domain.Item {
	desc := asMap(raw["desc"])
	item := &domain.Item{
		ID:        str(desc, "dynamic_id_str"),
		PublishTS: integer(desc, "timestamp"),
	}

	profile := asMap(asMap(desc["user_profile"])["info"])
	item.AuthorName = str(profile, "uname")
	if item.AuthorName == "" {
		uid := str(desc, "uid")
		if name := n.resolverName(ctx, uid); name != "" {
			item.AuthorName = name
		} else if uid != "" {
			item.AuthorName = "UID:" + uid
		}
	}

	card := unwrapCard(raw["card"])
	text, images := legacyContent(card)

	// a forward embeds the original card as yet another JSON string
	if orig := unwrapCard(card["origin"]); len(orig) > 0 {
		item.IsForward = true
		item.ForwardAuthor = str(asMap(asMap(raw["origin_user"])["info"]), "uname")
		fwText, fwImages := legacyContent(orig)
		item.ForwardText = cleanText(fwText)
		text = joinNonEmpty("\n\n", text, "↻ @"+item.ForwardAuthor+":\n"+item.ForwardText)
		if len(fwImages) > 0 {
			images = fwImages
		}
	}

	item.Text = cleanText(text)
	item.ImageURLs = dedupURLs(images)
	if item.Text == "" {
		if len(item.ImageURLs) > 0 {
			item.Text = placeholder(nil, len(item.ImageURLs))
		} else {
			item.Text = "(no text content)"
		}
	}
	return item
}

func (n *Normalizer) resolverName(ctx context.Context, uid string) string {
	if n.resolver == nil || uid == "" {
		return ""
	}
	return n.resolver.Resolve(ctx, uid)
}

// unwrapCard parses a card value that may arrive as a JSON string or an
// already-decoded mapping.
func unwrapCard(v any) map[string]any {
	switch c := v.(type) {
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(c), &m); err != nil {
			return map[string]any{}
		}
		return m
	default:
		return asMap(v)
	}
}

// legacyContent extracts text and image URLs from a decoded legacy card.
// The shape varies by kind: text posts keep content under item, image posts
// add pictures, videos carry title/desc/pic at the top level.
func legacyContent(card map[string]any) (text string, images []string) {
	inner := asMap(card["item"])

	text = firstStr(inner, "content", "description")
	for _, p := range asList(inner["pictures"]) {
		if src := str(asMap(p), "img_src"); src != "" {
			images = append(images, src)
		}
	}

	if text == "" {
		// video-style card: title only, cover as the image
		text = str(card, "title")
		if cover := str(card, "pic"); cover != "" {
			images = append(images, cover)
		}
	}
	return text, images
}
