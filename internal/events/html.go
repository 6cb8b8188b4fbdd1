package events

import (
	"regexp"
	"strings"
)

var (
	dataAttrRe   = regexp.MustCompile(`\sdata-[a-zA-Z0-9_-]+="[^"]*"`)
	styleAttrRe  = regexp.MustCompile(`(?i)\sstyle="[^"]*"`)
	classAttrRe  = regexp.MustCompile(`(?i)\sclass="[^"]*"`)
	spanTagRe    = regexp.MustCompile(`(?i)</?span[^>]*>`)
	interTagWSRe = regexp.MustCompile(`>\s+<`)

	paraCloseRe = regexp.MustCompile(`(?i)</p>`)
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	itemCloseRe = regexp.MustCompile(`(?i)</li>`)
	itemOpenRe  = regexp.MustCompile(`(?i)<li[^>]*>`)
	anyTagRe    = regexp.MustCompile(`<[^>]+>`)

	blankLinesRe   = regexp.MustCompile(`\r?\n\s*\r?\n\s*\r?\n+`)
	repeatedWSRe   = regexp.MustCompile(`[ \t]{2,}`)
	indentedLineRe = regexp.MustCompile(`\n[ \t]+`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&rsquo;", "'",
	"&lsquo;", "'",
	"&ldquo;", `"`,
	"&rdquo;", `"`,
	"&ndash;", "–",
	"&mdash;", "—",
	"&hellip;", "…",
)

// CleanHTML strips portal markup noise from a description fragment: data-*, style and
// class attributes go, span wrappers are unwrapped and whitespace between tags is removed.
// Semantic tags (p, br, strong, em, a, lists) are kept. CleanHTML(CleanHTML(x)) == CleanHTML(x).
func CleanHTML(html string) string {
	if html == "" {
		return ""
	}

	cleaned := dataAttrRe.ReplaceAllString(html, "")
	cleaned = styleAttrRe.ReplaceAllString(cleaned, "")
	cleaned = classAttrRe.ReplaceAllString(cleaned, "")
	cleaned = spanTagRe.ReplaceAllString(cleaned, "")
	cleaned = interTagWSRe.ReplaceAllString(cleaned, "><")

	return strings.TrimSpace(cleaned)
}

// PlainText flattens an HTML fragment: paragraphs become blank-line separated, list
// items become "• " lines, tags are dropped and common named entities decoded.
func PlainText(html string) string {
	if html == "" {
		return ""
	}

	text := paraCloseRe.ReplaceAllString(html, "\n\n")
	text = lineBreakRe.ReplaceAllString(text, "\n")
	text = itemCloseRe.ReplaceAllString(text, "\n")
	text = itemOpenRe.ReplaceAllString(text, "• ")

	text = anyTagRe.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)

	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = repeatedWSRe.ReplaceAllString(text, " ")
	text = indentedLineRe.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}
