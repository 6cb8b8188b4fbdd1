package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML(t *testing.T) {
	in := `<p class="lead" style="color:red" data-block-id="a1"><span data-x="1">Join us</span> for <strong>dinner</strong></p>
	<ul data-list="x">
		<li style="margin:0">Drinks</li>
	</ul>`

	assert.Equal(t,
		`<p>Join us for <strong>dinner</strong></p><ul><li>Drinks</li></ul>`,
		CleanHTML(in))
	assert.Equal(t, "", CleanHTML(""))
}

func TestCleanHTMLIsIdempotent(t *testing.T) {
	inputs := []string{
		`<p>Hello <span data-x="1">world</span></p><ul><li>One</li><li>Two</li></ul>`,
		`<div class="a"> <p STYLE="x">A&amp;B</p> </div>`,
		`  plain text  `,
		`<a href="https://example.com" data-track="1">link</a><br/>`,
	}
	for _, in := range inputs {
		once := CleanHTML(in)
		assert.Equal(t, once, CleanHTML(once), in)
	}
}

func TestPlainTextStructure(t *testing.T) {
	in := `<p>Hello <span data-x="1">world</span></p><ul><li>One</li><li>Two</li></ul>`
	assert.Equal(t, "Hello world\n\n• One\n• Two", PlainText(CleanHTML(in)))
}

func TestPlainTextEntities(t *testing.T) {
	assert.Equal(t, "A&B", PlainText("A&amp;B"))
	assert.Equal(t,
		`It's "fine" – really — ok… <x> a b`,
		PlainText(`It&rsquo;s &ldquo;fine&rdquo; &ndash; really &mdash; ok&hellip; &lt;x&gt; a&nbsp;b`))
	assert.Equal(t, `'q' "d"`, PlainText(`&#39;q&apos; &quot;d&quot;`))
}

func TestPlainTextWhitespace(t *testing.T) {
	in := "<p>One</p>\n\n\n<p>Two   words</p><br>\n   Three"
	assert.Equal(t, "One\n\nTwo words\n\nThree", PlainText(in))
	assert.Equal(t, "", PlainText(""))
}

func TestPlainTextLineBreaks(t *testing.T) {
	assert.Equal(t, "Line one\nLine two", PlainText("Line one<br/>Line two"))
	assert.Equal(t, "Line one\nLine two", PlainText("Line one<BR >Line two"))
}
