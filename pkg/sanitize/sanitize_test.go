package sanitize

import (
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var corpus = []string{
	"",
	"plain words",
	"  lots\tof \n whitespace  ",
	"Tom & Jerry's \"show\"",
	"<p>Hello</p><script>alert('xss')</script>",
	`<a href="javascript:alert(1)">click</a>`,
	`<a href="https://example.com" onclick="steal()">link</a>`,
	`<a href="mailto:ta@ubc.ca" title="TA">mail</a>`,
	`<img src=x onerror=alert(1)>`,
	"<ul><li>one</li><li><strong>two</strong></li></ul>",
	`<pre class="language-python"><code class="language-python">print(1)</code></pre>`,
	`<code class="evil onload">x</code>`,
	"<div><span style=\"color:red\">styled</span></div>",
	"a < b && c > d",
	"&lt;script&gt;already escaped&lt;/script&gt;",
	"<<nested>>tags<</nested>>",
	"emoji 🎉 and ünïcödé",
}

func TestPlainTextStripsMarkup(t *testing.T) {
	assert.Equal(t, "Hello", PlainText("<b>Hello</b><script>alert(1)</script>"))
	assert.Equal(t, "a b c", PlainText("  a \t b\n\nc "))
	assert.Equal(t, "alice@student.ubc.ca", PlainText(" alice@student.ubc.ca "))
	assert.NotContains(t, PlainText(`<img src=x onerror=alert(1)>`), "onerror")
}

func TestRichTextKeepsAllowList(t *testing.T) {
	in := "<p><strong>Bold</strong> and <em>italic</em></p>"
	assert.Equal(t, in, RichText(in))

	assert.Equal(t, "<p>Hello</p>", RichText("<p>Hello</p><script>alert('xss')</script>"))
	assert.Equal(t, "<ul><li>one</li></ul>", RichText("<ul><li>one</li></ul>"))
}

func TestRichTextStripsHandlersAndSchemes(t *testing.T) {
	out := RichText(`<a href="https://example.com" onclick="steal()">link</a>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `rel="nofollow"`)

	out = RichText(`<a href="javascript:alert(1)">click</a>`)
	assert.NotContains(t, out, "javascript")
	assert.Contains(t, out, "click")

	out = RichText(`<p style="color:red" class="x">styled</p>`)
	assert.Equal(t, "<p>styled</p>", out)

	out = RichText(`<code class="language-go">fmt.Println()</code>`)
	assert.Equal(t, `<code class="language-go">fmt.Println()</code>`, out)
}

func TestCodeLiteralRoundTrip(t *testing.T) {
	inputs := append([]string{
		"def f(x):\n\treturn x < 3 and x > 1\r\n",
		"#include <iostream>\nint main() { std::cout << \"hi\"; }",
		"&amp; stays &amp;",
		"\x00\x01 binary-ish \xff",
	}, corpus...)
	for _, in := range inputs {
		out := CodeLiteral(in)
		assert.NotContains(t, out, "<")
		assert.Equal(t, in, html.UnescapeString(out), "round trip for %q", in)
	}
	assert.Equal(t, "line1\n\tline2", CodeLiteral("line1\n\tline2"))
}

func TestIdempotence(t *testing.T) {
	for _, in := range corpus {
		once := PlainText(in)
		assert.Equal(t, once, PlainText(once), "plain text %q", in)

		once = RichText(in)
		assert.Equal(t, once, RichText(once), "rich text %q", in)
	}

	// The code level is a fixed point on text without escapable characters.
	for _, in := range []string{"print(1)", "x = 1\n\ty = 2", ""} {
		once := CodeLiteral(in)
		assert.Equal(t, once, CodeLiteral(once))
	}
}

func TestTags(t *testing.T) {
	tags := Tags([]string{" ds ", "", "algo", "ds", "<b>heap</b>", "   "}, 10, 30)
	assert.Equal(t, []string{"ds", "algo", "heap"}, tags)

	many := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, strings.Repeat("t", i+1))
	}
	assert.Len(t, Tags(many, 10, 30), 10)

	long := Tags([]string{strings.Repeat("x", 40)}, 10, 30)
	assert.Equal(t, []string{strings.Repeat("x", 30)}, long)

	again := Tags(tags, 10, 30)
	assert.Equal(t, tags, again)
}

func TestTruncateDoesNotSplitEntities(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc&amp;def", 5))
	assert.Equal(t, "abc&amp;", truncate("abc&amp;def", 8))
}
