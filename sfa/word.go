package sfa

import (
	"strings"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
)

// Word is the symbolic form of one window. The two representations,
// PackedWord and LargeWord, are both comparable and serve directly as map
// keys; words from different representations never compare equal.
type Word interface {
	isWord()
}

// PackedWord stores letters in a single integer, most significant letter
// first, letterBits bits per letter.
type PackedWord uint64

func (PackedWord) isWord() {}

// LargeWord stores letters explicitly, each as a fixed number of big-endian
// bytes. It has no width limit.
type LargeWord string

func (LargeWord) isWord() {}

// codec is the symbol-sequence capability every bag operation goes
// through: encode a window, shorten a word, compose an n-gram, decode.
type codec interface {
	// encode quantizes the first wordLength coefficients against bp
	encode(coeffs []float64, bp binning.Breakpoints) Word
	// shorten drops the trailing amount letters
	shorten(w Word, amount int) Word
	// compose forms an n-gram symbol with prev in front of cur
	compose(prev, cur Word) Word
	// decode returns the letters of a plain word
	decode(w Word) []int
	// split separates a composed n-gram into its two words
	split(w Word) (prev, cur Word)
	// withLength returns the codec for words of n letters
	withLength(n int) codec
}

type packedCodec struct {
	wordLength int
	letterBits int
}

func (c packedCodec) encode(coeffs []float64, bp binning.Breakpoints) Word {
	var w uint64
	for i := range c.wordLength {
		w = w<<c.letterBits | uint64(bp.Letter(i, coeffs[i]))
	}
	return PackedWord(w)
}

func (c packedCodec) shorten(w Word, amount int) Word {
	return w.(PackedWord) >> (amount * c.letterBits)
}

func (c packedCodec) compose(prev, cur Word) Word {
	return prev.(PackedWord)<<(c.wordLength*c.letterBits) | cur.(PackedWord)
}

func (c packedCodec) decode(w Word) []int {
	p := uint64(w.(PackedWord))
	mask := uint64(1)<<c.letterBits - 1
	letters := make([]int, c.wordLength)
	for i := c.wordLength - 1; i >= 0; i-- {
		letters[i] = int(p & mask)
		p >>= c.letterBits
	}
	return letters
}

func (c packedCodec) split(w Word) (Word, Word) {
	bits := c.wordLength * c.letterBits
	p := w.(PackedWord)
	var mask PackedWord = 1<<bits - 1
	if bits >= 64 {
		mask = ^PackedWord(0)
	}
	return p >> bits, p & mask
}

func (c packedCodec) withLength(n int) codec {
	c.wordLength = n
	return c
}

type largeCodec struct {
	wordLength  int
	letterBytes int
}

func newLargeCodec(wordLength, letterBits int) largeCodec {
	return largeCodec{wordLength: wordLength, letterBytes: max(1, (letterBits+7)/8)}
}

func (c largeCodec) encode(coeffs []float64, bp binning.Breakpoints) Word {
	var sb strings.Builder
	sb.Grow(c.wordLength * c.letterBytes)
	for i := range c.wordLength {
		letter := bp.Letter(i, coeffs[i])
		for b := c.letterBytes - 1; b >= 0; b-- {
			sb.WriteByte(byte(letter >> (8 * b)))
		}
	}
	return LargeWord(sb.String())
}

func (c largeCodec) shorten(w Word, amount int) Word {
	s := w.(LargeWord)
	return s[:len(s)-amount*c.letterBytes]
}

func (c largeCodec) compose(prev, cur Word) Word {
	return prev.(LargeWord) + cur.(LargeWord)
}

func (c largeCodec) decode(w Word) []int {
	s := w.(LargeWord)
	letters := make([]int, len(s)/c.letterBytes)
	for i := range letters {
		letter := 0
		for _, b := range []byte(s[i*c.letterBytes : (i+1)*c.letterBytes]) {
			letter = letter<<8 | int(b)
		}
		letters[i] = letter
	}
	return letters
}

func (c largeCodec) split(w Word) (Word, Word) {
	s := w.(LargeWord)
	half := c.wordLength * c.letterBytes
	return s[:len(s)-half], s[len(s)-half:]
}

func (c largeCodec) withLength(n int) codec {
	c.wordLength = n
	return c
}
