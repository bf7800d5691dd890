// Package features derives classifier inputs from raw text lines.
//
// Every value is a function of the line text, except relative_fontSize which
// needs the whole page: it is the line's char_len minus the mean char_len of the
// page, a stand-in for emphasis when no font metadata is available.
package features

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/text/unicode/norm"
)

// ErrNonText reports line content that is not valid text.
var ErrNonText = errors.New("line text is not valid UTF-8 text")

// Any Unicode decimal digit counts, so Arabic-Indic section numbers match too.
var numberPrefix = regexp.MustCompile(`^\p{Nd}+(\.\p{Nd}+)*`)

// Extract returns one vector per line, in input order.
func Extract(lines []doctree.Line) ([]doctree.FeatureVector, error) {
	out := make([]doctree.FeatureVector, len(lines))

	type pageSum struct {
		chars int
		lines int
	}
	pages := make(map[int]*pageSum)

	for i, l := range lines {
		if !utf8.ValidString(l.Text) {
			return nil, fmt.Errorf("%w: page %d line %d", ErrNonText, l.Page, l.LineNum)
		}
		v := lineFeatures(l.Text)
		out[i] = v

		ps := pages[l.Page]
		if ps == nil {
			ps = &pageSum{}
			pages[l.Page] = ps
		}
		ps.chars += v.CharLen
		ps.lines++
	}

	// Only final once every line of the page has been seen.
	for i, l := range lines {
		ps := pages[l.Page]
		mean := float64(ps.chars) / float64(ps.lines)
		out[i].RelativeFontSize = float64(out[i].CharLen) - mean
	}
	return out, nil
}

func lineFeatures(text string) doctree.FeatureVector {
	normalized := norm.NFC.String(strings.TrimSpace(text))
	return doctree.FeatureVector{
		CharLen:         utf8.RuneCountInString(text),
		WordCount:       WordCount(text),
		IsAllCaps:       boolInt(IsAllCaps(normalized)),
		IsTitleCase:     boolInt(IsTitleCase(normalized)),
		HasNumberPrefix: boolInt(HasNumberPrefix(text)),
	}
}

// WordCount counts maximal runs of non-space characters.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// IsAllCaps reports whether s has at least one cased letter and no lowercase
// or titlecase letters.
func IsAllCaps(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// IsTitleCase reports whether every cased run in s starts with an uppercase
// or titlecase letter followed only by lowercase letters.
func IsTitleCase(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r), unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// HasNumberPrefix reports whether s starts with a section number such as "3" or "4.5.6".
func HasNumberPrefix(s string) bool {
	return numberPrefix.MatchString(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
