package sfa

// GramQuadrant is the quadrant carried by every bigram and skip-gram key.
const GramQuadrant = -1

// Key identifies one bag entry. Plain words use quadrant 0, pyramid words
// the id of the positional bucket they fall in, n-grams GramQuadrant.
type Key struct {
	Word     Word
	Quadrant int
}

// Bag is the word histogram of one series.
type Bag map[Key]uint32

// Count returns the count of a plain (quadrant 0) word
func (b Bag) Count(w Word) uint32 {
	return b[Key{Word: w}]
}

// Total sums all counts
func (b Bag) Total() uint64 {
	var total uint64
	for _, c := range b {
		total += uint64(c)
	}
	return total
}

// bagBuilder turns the word sequence of one series into its bag.
type bagBuilder struct {
	codec        codec
	windowSize   int
	nTimepoints  int
	levels       int
	removeRepeat bool
	bigrams      bool
	skipGrams    bool
}

func (b *bagBuilder) build(words []Word) Bag {
	bag := make(Bag)
	var last Word
	repeats := 0

	for window, word := range words {
		if b.removeRepeat && word == last {
			repeats++
		} else {
			if b.levels > 1 {
				b.addPyramid(bag, word, window-repeats/2)
			} else {
				bag[Key{Word: word}]++
			}
			last = word
			repeats = 0
		}

		if b.bigrams && window >= b.windowSize {
			b.addGram(bag, words[window-b.windowSize], word)
		}
		if b.skipGrams {
			for s := 2; s < 4; s++ {
				if window >= s*b.windowSize {
					b.addGram(bag, words[window-s*b.windowSize], word)
				}
			}
		}
	}
	return bag
}

func (b *bagBuilder) addGram(bag Bag, prev, cur Word) {
	bag[Key{Word: b.codec.compose(prev, cur), Quadrant: GramQuadrant}]++
}

// addPyramid counts word once per level; level L splits the series into
// 2^L quadrants and weighs its entry by 2^L.
func (b *bagBuilder) addPyramid(bag Bag, word Word, position int) {
	start := 0
	for level := range b.levels {
		quadrants := 1 << level
		span := b.nTimepoints / quadrants
		q := min((position+b.windowSize/2)/span, quadrants-1)
		bag[Key{Word: word, Quadrant: start + q}] += uint32(quadrants)
		start += quadrants
	}
}
