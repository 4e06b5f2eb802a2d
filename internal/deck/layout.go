package deck

import (
	"path"
	"strings"
)

// Layout maps decks and slide keys onto store paths.
type Layout struct {
	ModulesDir   string
	AudioDir     string
	ManifestPath string
	AudioExt     string
}

// DefaultLayout mirrors the course repository structure.
func DefaultLayout() Layout {
	return Layout{
		ModulesDir:   "modules",
		AudioDir:     "audio",
		ManifestPath: "audio/manifest.json",
		AudioExt:     DefaultAudioExt,
	}
}

// DocumentPath returns "modules/<deck>.html".
func (l Layout) DocumentPath(id ID) string {
	return path.Join(l.ModulesDir, string(id)+".html")
}

// AudioDeckDir returns the directory holding a deck's audio objects.
func (l Layout) AudioDeckDir(id ID) string {
	return path.Join(l.AudioDir, string(id))
}

// AudioPath returns the store path of the slide's audio object.
func (l Layout) AudioPath(key SlideKey) string {
	return path.Join(l.AudioDir, key.String())
}

// Key builds the slide key using the layout's audio extension.
func (l Layout) Key(id ID, slide int) SlideKey {
	ext := strings.TrimSpace(l.AudioExt)
	if ext == "" {
		ext = DefaultAudioExt
	}
	return SlideKey{Deck: id, Slide: slide, Ext: ext}
}

// DeckFromDocument extracts the deck id from a document object name such as
// "module-04.html". It returns false for unrelated files.
func (l Layout) DeckFromDocument(name string) (ID, bool) {
	base := path.Base(name)
	if !strings.HasSuffix(base, ".html") {
		return "", false
	}
	id, err := ParseID(strings.TrimSuffix(base, ".html"))
	if err != nil {
		return "", false
	}
	return id, true
}
