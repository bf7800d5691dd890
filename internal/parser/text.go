package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// TextParser handles plain text files. A form feed starts a new page.
type TextParser struct{}

func (p *TextParser) ParseLines(r io.Reader, filename string) ([]doctree.Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	c := newCollector()
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\f")
		for i, part := range parts {
			if i > 0 {
				c.setPage(c.page + 1)
			}
			c.add(part)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c.result(), nil
}
