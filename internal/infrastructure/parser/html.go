package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	blankRuns  = regexp.MustCompile(`[ \t\x{00a0}]+`)
	emptyLines = regexp.MustCompile(`\n{3,}`)
)

// noise is removed before text extraction.
const noise = "script, style, noscript, nav, header, footer, iframe, svg, form"

// contentRoots are tried in order; the first one present wins.
var contentRoots = []string{"main", "#main-content", "#content", "article", "body"}

// blockTags end a line of extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "ul": true, "ol": true, "dt": true, "dd": true,
}

// ExtractText reads an HTML document and returns its main content as plain
// text, one block element per line.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noise).Remove()

	root := doc.Selection
	for _, selector := range contentRoots {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			root = sel
			break
		}
	}

	var b strings.Builder
	writeText(&b, root)
	return normalizeText(b.String()), nil
}

// ExtractTextString is ExtractText over an in-memory page.
func ExtractTextString(html string) (string, error) {
	return ExtractText(strings.NewReader(html))
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			b.WriteString(node.Text())
			return
		}
		name := goquery.NodeName(node)
		if blockTags[name] {
			b.WriteString("\n")
		}
		writeText(b, node)
		if blockTags[name] {
			b.WriteString("\n")
		}
	})
}

func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRuns.ReplaceAllString(line, " "))
	}
	joined := strings.Join(lines, "\n")
	joined = emptyLines.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}
