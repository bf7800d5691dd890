// Package outline assembles classified heading lines into a nested outline.
package outline

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// UnrankedRank is the rank of any label outside title/h1/h2/h3. It is the
// lowest precedence, so two adjacent unranked headings never nest: the second
// pops the first and becomes its sibling.
const UnrankedRank = 10

// Rank returns the structural precedence of a label; lower means higher in
// the hierarchy. Matching is case-insensitive.
func Rank(label string) int {
	switch strings.ToLower(label) {
	case "title":
		return 0
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	}
	return UnrankedRank
}

// Build nests headings in the order given. Body lines are skipped. Each
// heading becomes a child of the nearest preceding open heading with a
// strictly smaller rank, or a top-level entry when there is none.
func Build(lines []doctree.LabeledLine) *doctree.Outline {
	type open struct {
		node *doctree.HeadingNode
		rank int
	}
	var stack []open
	out := doctree.Empty()

	for _, l := range lines {
		if !l.IsHeading() {
			continue
		}
		node := &doctree.HeadingNode{
			Level:    strings.ToUpper(l.Label),
			Text:     l.Text,
			Page:     l.Page,
			Children: []*doctree.HeadingNode{},
		}
		rank := Rank(l.Label)

		for len(stack) > 0 && stack[len(stack)-1].rank >= rank {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		} else {
			out.Outline = append(out.Outline, node)
		}
		stack = append(stack, open{node: node, rank: rank})
	}

	if len(out.Outline) > 0 {
		out.Title = out.Outline[0].Text
	}
	return out
}
