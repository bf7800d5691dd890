package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Parser converts raw document bytes into page-ordered text lines.
type Parser interface {
	ParseLines(r io.Reader, filename string) ([]doctree.Line, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".ndjson":   true,
	".jsonl":    true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes parser behavior where a format has choices.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".ndjson", ".jsonl":
		return &NDJSONParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// collector numbers lines per page. Each physical line is trimmed and kept,
// blank ones included, so line_num is the line's index within its page.
type collector struct {
	lines []doctree.Line
	page  int
	next  int
}

func newCollector() *collector {
	return &collector{page: 1}
}

func (c *collector) setPage(page int) {
	if page != c.page {
		c.page = page
		c.next = 0
	}
}

func (c *collector) add(text string) {
	c.lines = append(c.lines, doctree.Line{Text: strings.TrimSpace(text), Page: c.page, LineNum: c.next})
	c.next++
}

// addBlock splits a page of text into lines. A page with no text adds none.
func (c *collector) addBlock(text string) {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, ln := range strings.Split(text, "\n") {
		c.add(ln)
	}
}

func (c *collector) result() []doctree.Line {
	if c.lines == nil {
		return []doctree.Line{}
	}
	return c.lines
}
