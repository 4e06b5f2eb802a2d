package document

import (
	"bytes"
	"strings"
)

// NarrationAttribute is the attribute holding a slide's narration text.
const NarrationAttribute = "data-narration"

const slideClass = "slide"

// Attribute is one parsed attribute of a marker. Offsets index the document.
type Attribute struct {
	// Name is lowercased.
	Name      string
	NameStart int
	NameEnd   int
	// ValueStart and ValueEnd span the value including any quotes. Both are
	// -1 when the attribute has no value.
	ValueStart int
	ValueEnd   int
	// Value is the raw value between the quotes, not unescaped.
	Value string
}

// HasValue reports whether the attribute was written with "=value".
func (a Attribute) HasValue() bool {
	return a.ValueStart >= 0
}

// Marker is the opening tag of one slide.
type Marker struct {
	// Index is 1-based in document order.
	Index int
	// Start is the offset of '<'; End is just past '>'.
	Start int
	End   int
	// Close is the offset of the closing delimiter: '/' for "/>", else '>'.
	Close      int
	Attributes []Attribute
}

// Attribute returns the first attribute with the given lowercase name.
func (m Marker) Attribute(name string) (Attribute, bool) {
	for _, attr := range m.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Scan returns the slide markers of doc in document order. Comments are
// skipped, quoted attribute values may contain '>' and the contents of
// script and style elements are not scanned.
func Scan(doc []byte) []Marker {
	var markers []Marker
	i := 0
	for i < len(doc) {
		lt := bytes.IndexByte(doc[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		switch {
		case bytes.HasPrefix(doc[i:], []byte("<!--")):
			end := bytes.Index(doc[i+4:], []byte("-->"))
			if end < 0 {
				return markers
			}
			i += 4 + end + 3
			continue
		case i+1 < len(doc) && (doc[i+1] == '!' || doc[i+1] == '?' || doc[i+1] == '/'):
			end := bytes.IndexByte(doc[i+1:], '>')
			if end < 0 {
				return markers
			}
			i += 1 + end + 1
			continue
		case i+1 >= len(doc) || !isASCIILetter(doc[i+1]):
			i++
			continue
		}

		nameEnd := i + 1
		for nameEnd < len(doc) && isTagNameByte(doc[nameEnd]) {
			nameEnd++
		}
		name := strings.ToLower(string(doc[i+1 : nameEnd]))
		tag, ok := parseTag(doc, i, nameEnd)
		if !ok {
			return markers
		}

		if name == "section" && isSlide(tag.Attributes) {
			tag.Index = len(markers) + 1
			markers = append(markers, tag)
		}
		i = tag.End

		if rawText[name] {
			i = skipRawText(doc, i, name)
		}
	}
	return markers
}

// parseTag reads attributes from pos (just past the tag name) to the closing
// '>'. It returns false when the tag is unterminated.
func parseTag(doc []byte, start, pos int) (Marker, bool) {
	m := Marker{Start: start}
	for pos < len(doc) {
		c := doc[pos]
		switch {
		case isSpace(c):
			pos++
		case c == '>':
			m.Close = pos
			m.End = pos + 1
			return m, true
		case selfClosing(doc, pos):
			m.Close = pos
			m.End = pos + 2
			return m, true
		case c == '/':
			pos++
		default:
			attr, next := parseAttribute(doc, pos)
			if next < 0 {
				return Marker{}, false
			}
			m.Attributes = append(m.Attributes, attr)
			pos = next
		}
	}
	return Marker{}, false
}

func parseAttribute(doc []byte, pos int) (Attribute, int) {
	attr := Attribute{NameStart: pos, ValueStart: -1, ValueEnd: -1}
	for pos < len(doc) && !isSpace(doc[pos]) && doc[pos] != '=' && doc[pos] != '>' && !selfClosing(doc, pos) {
		pos++
	}
	attr.NameEnd = pos
	attr.Name = strings.ToLower(string(doc[attr.NameStart:attr.NameEnd]))

	look := pos
	for look < len(doc) && isSpace(doc[look]) {
		look++
	}
	if look >= len(doc) || doc[look] != '=' {
		return attr, pos
	}
	look++
	for look < len(doc) && isSpace(doc[look]) {
		look++
	}
	if look >= len(doc) {
		return attr, -1
	}

	switch q := doc[look]; q {
	case '"', '\'':
		end := bytes.IndexByte(doc[look+1:], q)
		if end < 0 {
			return attr, -1
		}
		attr.ValueStart = look
		attr.ValueEnd = look + 1 + end + 1
		attr.Value = string(doc[look+1 : look+1+end])
		return attr, attr.ValueEnd
	case '>':
		// "name=>" carries an empty unquoted value.
		return attr, look
	default:
		end := look
		for end < len(doc) && !isSpace(doc[end]) && doc[end] != '>' && !selfClosing(doc, end) {
			end++
		}
		attr.ValueStart = look
		attr.ValueEnd = end
		attr.Value = string(doc[look:end])
		return attr, end
	}
}

// rawText elements hold text that is never parsed as markup.
var rawText = map[string]bool{"script": true, "style": true, "title": true, "textarea": true}

func selfClosing(doc []byte, pos int) bool {
	return doc[pos] == '/' && pos+1 < len(doc) && doc[pos+1] == '>'
}

func skipRawText(doc []byte, pos int, name string) int {
	closing := []byte("</" + name)
	for pos < len(doc) {
		idx := bytes.IndexByte(doc[pos:], '<')
		if idx < 0 {
			return len(doc)
		}
		pos += idx
		if len(doc)-pos >= len(closing) && bytes.EqualFold(doc[pos:pos+len(closing)], closing) {
			return pos
		}
		pos++
	}
	return pos
}

func isSlide(attrs []Attribute) bool {
	for _, attr := range attrs {
		if attr.Name != "class" {
			continue
		}
		for _, token := range strings.Fields(attr.Value) {
			if token == slideClass {
				return true
			}
		}
		return false
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameByte(c byte) bool {
	return isASCIILetter(c) || (c >= '0' && c <= '9') || c == '-' || c == ':'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
