package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
)

// textElements are the elements whose text becomes lines. A match nested in
// another match is covered by the outer one, and an element with no text
// emits nothing.
const textElements = "title, h1, h2, h3, h4, h5, h6, p, li, td, th, blockquote, pre"

// HTMLParser handles HTML files. The whole document is one page.
type HTMLParser struct{}

func (p *HTMLParser) ParseLines(r io.Reader, filename string) ([]doctree.Line, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style, noscript").Remove()

	c := newCollector()
	doc.Find(textElements).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(textElements).Length() > 0 {
			return
		}
		if goquery.NodeName(s) == "pre" {
			c.addBlock(s.Text())
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			c.add(text)
		}
	})
	return c.result(), nil
}
