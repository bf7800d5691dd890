package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"
)

// PDFParser handles PDF files. It tries ledongthuc/pdf first, then rebuilds
// lines from positioned text with rsc.io/pdf, then falls back to pdftotext if
// enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) ParseLines(r io.Reader, filename string) ([]doctree.Line, error) {
	// Both readers need a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil {
		pages, err = extractPositionalPages(tmpPath)
	}
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	c := newCollector()
	for i, page := range pages {
		c.setPage(i + 1)
		c.addBlock(page)
	}
	return c.result(), nil
}

// extractPDFPages returns one text block per page, including empty pages so
// page numbers stay aligned with the document.
func extractPDFPages(path string) (pages []string, err error) {
	defer recoverPDF("ledongthuc/pdf", &err)

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

// extractPositionalPages groups text runs that share a baseline into lines.
func extractPositionalPages(path string) (pages []string, err error) {
	defer recoverPDF("rsc.io/pdf", &err)

	doc, err := rpdf.Open(path)
	if err != nil {
		return nil, err
	}
	n := doc.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages[i-1] = joinRows(page.Content().Text)
	}
	return pages, nil
}

func joinRows(texts []rpdf.Text) string {
	if len(texts) == 0 {
		return ""
	}
	sorted := make([]rpdf.Text, len(texts))
	copy(sorted, texts)
	// PDF y grows upwards: top of page first.
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance(sorted[i]) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	prev := sorted[0]
	b.WriteString(prev.S)
	for _, t := range sorted[1:] {
		switch {
		case math.Abs(t.Y-prev.Y) > rowTolerance(prev):
			b.WriteString("\n")
		case t.X-(prev.X+prev.W) > prev.FontSize*0.2:
			b.WriteString(" ")
		}
		b.WriteString(t.S)
		prev = t
	}
	return b.String()
}

func rowTolerance(t rpdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize / 2
	}
	return 2
}

func recoverPDF(lib string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: malformed pdf: %v", lib, r)
	}
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext ends the last page with a form feed.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}
