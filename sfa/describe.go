package sfa

import (
	"fmt"
	"slices"
	"strings"
)

// Letters decodes a plain word into its letters, most significant first.
//
// Letters, DescribeKey and BagString decode at the model's word length.
// Words and bags produced by Shorten(res, L) must be rendered through the
// model returned by Truncate(L).
func (m *Model) Letters(w Word) []int {
	return m.codec.decode(w)
}

// DescribeKey renders a bag key as its letters. N-grams show both words,
// pyramid keys their quadrant.
func (m *Model) DescribeKey(k Key) string {
	if k.Quadrant == GramQuadrant {
		prev, cur := m.codec.split(k.Word)
		return fmt.Sprintf("(%v, %v)", m.codec.decode(prev), m.codec.decode(cur))
	}
	letters := fmt.Sprint(m.codec.decode(k.Word))
	if m.cfg.Levels > 1 {
		return fmt.Sprintf("(%s, %d)", letters, k.Quadrant)
	}
	return letters
}

// BagString renders bag with entries in lexical order.
func (m *Model) BagString(bag Bag) string {
	entries := make([]string, 0, len(bag))
	for k, c := range bag {
		entries = append(entries, fmt.Sprintf("%s: %d", m.DescribeKey(k), c))
	}
	slices.Sort(entries)
	return "{" + strings.Join(entries, ", ") + "}"
}
