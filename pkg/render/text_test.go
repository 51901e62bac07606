package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"entities decoded", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"line breaks", "one<br>two<br/>three<BR />four", "one\ntwo\nthree\nfour"},
		{"paragraphs", "<p>first</p><p>second</p>", "first\n\nsecond"},
		{"paragraph attrs dropped", `<p class="x">styled</p>`, "styled"},
		{"list items", "<ul><li>alpha</li><li>beta</li></ul>", "• alpha\n• beta"},
		{"anchor with text", `<a href="https://example.com">see this</a>`, "see this (https://example.com)"},
		{"anchor without text", `<a href="https://example.com"></a>`, "https://example.com"},
		{"anchor with markup label", `<a href="https://example.com"><b>bold link</b></a>`, "bold link (https://example.com)"},
		{"image with alt", `<img src="https://i.example.com/a.png" alt="cover art">`, "[img: cover art — https://i.example.com/a.png]"},
		{"image without alt", `<img src="https://i.example.com/a.png">`, "[img: https://i.example.com/a.png]"},
		{"leftover tags stripped", "<div><span>inner</span></div>", "inner"},
		{"newline collapse", "<p>a</p><p></p><p></p><p>b</p>", "a\n\nb"},
		{"space collapse", "wide   gap and\t\ttabs", "wide gap and tabs"},
		{"crlf normalized", "line\r\nnext\rlast", "line\nnext\nlast"},
		{"trimmed", "<p> padded </p>", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text already",
		"bullet • list\n\nwith blocks",
		"label (https://example.com)",
		"[img: cover — https://i.example.com/a.png]",
		Text("<p>one</p><ul><li>two</li></ul><a href='https://x.example'>three</a>"),
	}
	for _, in := range inputs {
		assert.Equal(t, in, Text(in), "rendering already-plain text must be a no-op: %q", in)
	}
}

func TestText_FullDocument(t *testing.T) {
	in := `<p>Version 5.0 is live!</p>` +
		`<ul><li>New area</li><li>New <a href="https://example.com/char">character</a></li></ul>` +
		`<img src="https://i.example.com/banner.png" alt="banner">`
	want := "Version 5.0 is live!\n\n" +
		"• New area\n• New character (https://example.com/char)\n" +
		"[img: banner — https://i.example.com/banner.png]"
	assert.Equal(t, want, Text(in))
}
