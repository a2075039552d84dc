package styler

import (
	"context"
	"fmt"
	"strings"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

const maxDescriptionLen = 200

// Template renders a deterministic channel post from pack metadata alone.
// It is the fallback stage of the renderer pipeline and never fails.
type Template struct{}

var _ ports.Styler = Template{}

// Render produces the post text: emoji header, trimmed description,
// feature bullets derived from categories, hashtags, and the reaction
// footer.
func (Template) Render(_ context.Context, pack domain.Pack) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s (%s)** %s\n\n", pack.Title, pack.GameVersions, headerEmoji(pack.Categories))
	b.WriteString(trimDescription(pack.Description))
	b.WriteString("\n\n✨ **Highlights:**\n")

	for _, feature := range features(pack.Categories) {
		fmt.Fprintf(&b, "• %s\n", feature)
	}

	b.WriteString("\n")
	b.WriteString(strings.Join(hashtags(pack), " "))
	b.WriteString("\n\n❤️ - Love it\n👎 - Not for me")

	return b.String(), nil
}

func headerEmoji(categories []string) string {
	switch {
	case contains(categories, "magic"):
		return "🔮"
	case contains(categories, "adventure"):
		return "⚔️"
	default:
		return "📦"
	}
}

func features(categories []string) []string {
	var out []string
	if contains(categories, "magic") {
		out = append(out, "🔮 Magic")
	}
	if contains(categories, "adventure") {
		out = append(out, "⚔️ Adventure")
	}
	if contains(categories, "technology") {
		out = append(out, "⚙️ Technology")
	}
	if len(out) == 0 {
		out = append(out, "✨ Unique mechanics")
	}
	return out
}

func hashtags(pack domain.Pack) []string {
	tags := []string{"#minecraft", "#modpack"}
	if v := primaryVersion(pack.GameVersions); v != "" {
		tags = append(tags, "#mc"+strings.ReplaceAll(v, ".", ""))
	}
	return tags
}

func primaryVersion(versions string) string {
	first := strings.TrimSpace(strings.Split(versions, ",")[0])
	if len(first) > 6 {
		first = first[:6]
	}
	return first
}

func trimDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if len(desc) <= maxDescriptionLen {
		return desc
	}

	cut := desc[:maxDescriptionLen]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
