package document

import (
	"bytes"

	"narrate/internal/textutil"
)

// Patch is the result of PatchNarration.
type Patch struct {
	Content []byte
	// Found is false when the slide index is out of range; Content is then
	// the input unchanged.
	Found bool
	// Previous is the unescaped narration the slide carried before the patch.
	Previous    string
	HadPrevious bool
	// Changed reports whether Content differs from the input.
	Changed bool
	// Slides is the number of markers in the document.
	Slides int
}

// PatchNarration sets the narration of the slide-th marker (1-based) to text.
func PatchNarration(doc []byte, slide int, text string) Patch {
	markers := Scan(doc)
	result := Patch{Content: doc, Slides: len(markers)}
	if slide < 1 || slide > len(markers) {
		return result
	}
	result.Found = true
	m := markers[slide-1]
	quoted := `"` + textutil.EscapeAttribute(text) + `"`

	var start, end int
	var replacement string
	attr, present := m.Attribute(NarrationAttribute)
	switch {
	case !present:
		start, end = m.Close, m.Close
		replacement = " " + NarrationAttribute + "=" + quoted
	case attr.HasValue():
		result.Previous = textutil.UnescapeAttribute(attr.Value)
		result.HadPrevious = true
		start, end = attr.ValueStart, attr.ValueEnd
		replacement = quoted
	default:
		result.HadPrevious = true
		start, end = attr.NameEnd, attr.NameEnd
		replacement = "=" + quoted
	}

	if string(doc[start:end]) == replacement {
		return result
	}
	out := make([]byte, 0, len(doc)-(end-start)+len(replacement))
	out = append(out, doc[:start]...)
	out = append(out, replacement...)
	out = append(out, doc[end:]...)
	result.Content = out
	result.Changed = !bytes.Equal(out, doc)
	return result
}

// Slide is one marker's narration.
type Slide struct {
	Index        int
	Narration    string
	HasNarration bool
}

// Narrations returns the unescaped narration of every slide in order.
func Narrations(doc []byte) []Slide {
	markers := Scan(doc)
	out := make([]Slide, 0, len(markers))
	for _, m := range markers {
		s := Slide{Index: m.Index}
		if attr, ok := m.Attribute(NarrationAttribute); ok {
			s.HasNarration = true
			s.Narration = textutil.UnescapeAttribute(attr.Value)
		}
		out = append(out, s)
	}
	return out
}

// NarrationAt returns the narration of one slide, and false when the index is
// out of range.
func NarrationAt(doc []byte, slide int) (Slide, bool) {
	slides := Narrations(doc)
	if slide < 1 || slide > len(slides) {
		return Slide{}, false
	}
	return slides[slide-1], true
}
