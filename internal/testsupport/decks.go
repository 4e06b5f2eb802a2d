package testsupport

import (
	"fmt"
	"strings"
	"testing"

	"narrate/internal/store"
)

// Deck renders a minimal slide document. Each narration becomes one slide;
// an empty string produces a slide without a narration attribute.
func Deck(narrations ...string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<body>\n<main class=\"deck\">\n")
	for i, text := range narrations {
		if text == "" {
			fmt.Fprintf(&b, "  <section class=\"slide\" id=\"s%d\">\n    <h2>Slide %d</h2>\n  </section>\n", i+1, i+1)
			continue
		}
		fmt.Fprintf(&b, "  <section class=\"slide\" id=\"s%d\" data-narration=\"%s\">\n    <h2>Slide %d</h2>\n  </section>\n",
			i+1, escape(text), i+1)
	}
	b.WriteString("</main>\n</body>\n</html>\n")
	return []byte(b.String())
}

func escape(text string) string {
	return strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", ">", "&gt;").Replace(text)
}

// SeedDeck stores a deck document at modules/<deck>.html.
func SeedDeck(t testing.TB, mem *store.Memory, deckID string, narrations ...string) {
	t.Helper()
	mem.Put("modules/"+deckID+".html", Deck(narrations...))
}
