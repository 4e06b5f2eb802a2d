package textutil_test

import (
	"testing"

	"narrate/internal/textutil"
)

func TestEscapeAttribute(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Hello <world> & friends", "Hello &lt;world&gt; &amp; friends"},
		{`say "hi"`, "say &quot;hi&quot;"},
		{"&amp;", "&amp;amp;"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := textutil.EscapeAttribute(tt.in); got != tt.want {
			t.Fatalf("EscapeAttribute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello <world> & friends",
		`"quoted" & <tagged>`,
		"&lt; already looks escaped",
		"no specials at all",
		"multi\nline & tab\t",
	}
	for _, in := range inputs {
		if got := textutil.UnescapeAttribute(textutil.EscapeAttribute(in)); got != in {
			t.Fatalf("round trip mismatch: got %q want %q", got, in)
		}
	}
}
