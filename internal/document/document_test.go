package document

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

const sampleDeck = `<!DOCTYPE html>
<html lang="en">
<head>
  <style>.slide > h2 { color: red; } /* <section class="slide"> */</style>
  <script>const tpl = '<section class="slide" data-narration="fake">';</script>
</head>
<body>
  <!-- <section class="slide" data-narration="commented out"> -->
  <section class="slide title" id="intro">
    <h1>Accessibility basics</h1>
  </section>
  <section data-title="a > b" class='slide' data-narration='Keyboard &amp; focus'>
    <p>Tab order</p>
  </section>
  <section class="slideshow-notes">not a slide</section>
  <section class="hero slide" data-narration>
    <p>Contrast</p>
  </section>
  <SECTION CLASS="slide" DATA-NARRATION="Upper &quot;case&quot;"/>
  <section class="slide">
    <p>Wrap up</p>
  </section>
</body>
</html>
`

func TestScanFindsOnlySlideMarkers(t *testing.T) {
	markers := Scan([]byte(sampleDeck))
	if len(markers) != 5 {
		t.Fatalf("expected 5 markers, got %d", len(markers))
	}
	for i, m := range markers {
		if m.Index != i+1 {
			t.Fatalf("marker %d has index %d", i, m.Index)
		}
		tag := sampleDeck[m.Start:m.End]
		if !strings.HasPrefix(strings.ToLower(tag), "<section") || !strings.HasSuffix(tag, ">") {
			t.Fatalf("marker %d spans %q", m.Index, tag)
		}
	}
	if !strings.Contains(sampleDeck[markers[1].Start:markers[1].End], `data-title="a > b"`) {
		t.Fatal("quoted '>' must not end the tag")
	}
	if sampleDeck[markers[3].Close] != '/' {
		t.Fatal("self-closing marker should close at '/'")
	}
}

func TestNarrations(t *testing.T) {
	slides := Narrations([]byte(sampleDeck))
	want := []Slide{
		{Index: 1},
		{Index: 2, Narration: "Keyboard & focus", HasNarration: true},
		{Index: 3, HasNarration: true},
		{Index: 4, Narration: `Upper "case"`, HasNarration: true},
		{Index: 5},
	}
	if len(slides) != len(want) {
		t.Fatalf("got %d slides", len(slides))
	}
	for i := range want {
		if slides[i] != want[i] {
			t.Fatalf("slide %d = %+v, want %+v", i+1, slides[i], want[i])
		}
	}
	if _, ok := NarrationAt([]byte(sampleDeck), 6); ok {
		t.Fatal("slide 6 should be out of range")
	}
}

func TestPatchInsertsWhenAbsent(t *testing.T) {
	doc := []byte(`<section class="slide" id="a"><p>x</p></section>`)
	p := PatchNarration(doc, 1, `Say "hi" & <wave>`)
	if !p.Found || !p.Changed || p.HadPrevious {
		t.Fatalf("unexpected patch flags %+v", p)
	}
	want := `<section class="slide" id="a" data-narration="Say &quot;hi&quot; &amp; &lt;wave&gt;"><p>x</p></section>`
	if string(p.Content) != want {
		t.Fatalf("got  %s\nwant %s", p.Content, want)
	}
}

func TestPatchInsertsBeforeSelfClosingDelimiter(t *testing.T) {
	doc := []byte(`<section class="slide"/>`)
	p := PatchNarration(doc, 1, "Hi")
	if string(p.Content) != `<section class="slide" data-narration="Hi"/>` {
		t.Fatalf("unexpected content %s", p.Content)
	}
}

func TestPatchReplacesValueInPlace(t *testing.T) {
	doc := []byte(`<section data-narration='old &amp; busted' class="slide" data-x="1">`)
	p := PatchNarration(doc, 1, "new")
	if !p.HadPrevious || p.Previous != "old & busted" {
		t.Fatalf("previous = %q", p.Previous)
	}
	if string(p.Content) != `<section data-narration="new" class="slide" data-x="1">` {
		t.Fatalf("attribute order not preserved: %s", p.Content)
	}
}

func TestPatchUnquotedValueKeepsSelfClosingDelimiter(t *testing.T) {
	doc := []byte(`<section class="slide" data-narration=old/>`)
	p := PatchNarration(doc, 1, "new")
	if !p.HadPrevious || p.Previous != "old" {
		t.Fatalf("previous = %q", p.Previous)
	}
	if string(p.Content) != `<section class="slide" data-narration="new"/>` {
		t.Fatalf("unexpected content %s", p.Content)
	}
}

func TestScanSkipsTitleAndTextarea(t *testing.T) {
	doc := `<html><head><title>Deck <section class="slide"></title></head>
<body>
  <textarea><section class="slide" data-narration="draft"></textarea>
  <section class="slide" data-narration="real"></section>
</body></html>`
	slides := Narrations([]byte(doc))
	if len(slides) != 1 || slides[0].Narration != "real" {
		t.Fatalf("expected only the body slide, got %+v", slides)
	}
}

func TestPatchValuelessAttribute(t *testing.T) {
	doc := []byte(`<section class="slide" data-narration>`)
	p := PatchNarration(doc, 1, "filled")
	if string(p.Content) != `<section class="slide" data-narration="filled">` {
		t.Fatalf("unexpected content %s", p.Content)
	}
}

func TestPatchOutOfRange(t *testing.T) {
	doc := []byte(sampleDeck)
	for _, slide := range []int{0, -1, 6, 100} {
		p := PatchNarration(doc, slide, "x")
		if p.Found || p.Changed || !bytes.Equal(p.Content, doc) {
			t.Fatalf("slide %d: expected not found and unchanged", slide)
		}
		if p.Slides != 5 {
			t.Fatalf("slide count = %d", p.Slides)
		}
	}
}

func TestPatchLocalityForEverySlide(t *testing.T) {
	doc := []byte(sampleDeck)
	markers := Scan(doc)
	for _, m := range markers {
		text := fmt.Sprintf("Narration for slide %d with <b>markup</b> & \"quotes\"", m.Index)
		p := PatchNarration(doc, m.Index, text)
		if !p.Found || !p.Changed {
			t.Fatalf("slide %d: expected a change", m.Index)
		}
		if !bytes.Equal(p.Content[:m.Start], doc[:m.Start]) {
			t.Fatalf("slide %d: bytes before marker changed", m.Index)
		}
		tail := doc[m.End:]
		if !bytes.HasSuffix(p.Content, tail) {
			t.Fatalf("slide %d: bytes after marker changed", m.Index)
		}

		after := Narrations(p.Content)
		before := Narrations(doc)
		for i := range after {
			if i == m.Index-1 {
				if after[i].Narration != text {
					t.Fatalf("slide %d: narration round-trip got %q", m.Index, after[i].Narration)
				}
				continue
			}
			if after[i] != before[i] {
				t.Fatalf("slide %d patch disturbed slide %d", m.Index, i+1)
			}
		}
	}
}

func TestPatchIsIdempotent(t *testing.T) {
	doc := []byte(sampleDeck)
	for slide := 1; slide <= 5; slide++ {
		first := PatchNarration(doc, slide, "Same & same")
		second := PatchNarration(first.Content, slide, "Same & same")
		if second.Changed || !bytes.Equal(second.Content, first.Content) {
			t.Fatalf("slide %d: re-patch changed the document", slide)
		}
		if second.Previous != "Same & same" {
			t.Fatalf("slide %d: previous = %q", slide, second.Previous)
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`a & b`,
		`&amp; already escaped`,
		`<script>alert("x")</script>`,
		"multi\nline\ttext",
		"unicode café ✓ über",
	}
	for _, text := range inputs {
		p := PatchNarration([]byte(`<section class="slide">`), 1, text)
		s, ok := NarrationAt(p.Content, 1)
		if !ok || s.Narration != text {
			t.Fatalf("round-trip of %q produced %q", text, s.Narration)
		}
	}
}

func TestModuleThreeSlideFive(t *testing.T) {
	var b strings.Builder
	b.WriteString("<main>\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, "  <section class=\"slide\" data-index=\"%d\">\n    <h2>Slide %d</h2>\n  </section>\n", i, i)
	}
	b.WriteString("</main>\n")
	doc := []byte(b.String())

	p := PatchNarration(doc, 5, "Screen readers announce headings.")
	if !p.Found {
		t.Fatal("slide 5 not found")
	}
	want := strings.Replace(b.String(), `data-index="5">`, `data-index="5" data-narration="Screen readers announce headings.">`, 1)
	if string(p.Content) != want {
		t.Fatalf("unexpected document:\n%s", p.Content)
	}
}
