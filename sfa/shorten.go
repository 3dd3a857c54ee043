package sfa

import (
	"fmt"

	"github.com/RyanBlaney/sonido-sfa/logging"
)

// Shorten rebuilds the bags of res for words of wordLength letters by
// dropping trailing letters from the saved full-length words. The result
// equals a transform by Truncate(wordLength) on the same series.
//
// res must come from a transform with SaveWords enabled. A wordLength
// above the fitted one is clamped to it. The returned bags hold words of
// wordLength letters; render them with the model from Truncate(wordLength).
func (m *Model) Shorten(res *Result, wordLength int) ([]Bag, error) {
	if res == nil || res.Words == nil {
		return nil, fmt.Errorf("%w: words must be saved with save_words to shorten bags", ErrPrerequisite)
	}
	if wordLength < 1 {
		return nil, configError("word_length", nil, "shortened length must be at least 1, got %d", wordLength)
	}
	if wordLength > m.cfg.WordLength {
		m.logger.Debug("clamping shortened word length", logging.Fields{
			"requested": wordLength,
			"fitted":    m.cfg.WordLength,
		})
		wordLength = m.cfg.WordLength
	}

	amount := m.cfg.WordLength - wordLength
	builder := m.bagBuilder(m.codec.withLength(wordLength))
	bags := make([]Bag, len(res.Words))

	err := parallelMap(len(res.Words), m.jobs, func(i int) error {
		words := make([]Word, len(res.Words[i]))
		for w, word := range res.Words[i] {
			words[w] = m.codec.shorten(word, amount)
		}
		bags[i] = builder.build(words)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bags, nil
}

// Truncate returns a model that uses only the first wordLength letters:
// breakpoints and coefficient support are cut, everything else is shared.
func (m *Model) Truncate(wordLength int) (*Model, error) {
	if wordLength < 1 || wordLength > m.cfg.WordLength {
		return nil, configError("word_length", nil, "truncated length must be in [1, %d], got %d", m.cfg.WordLength, wordLength)
	}

	t := *m
	t.cfg.WordLength = wordLength
	t.breakpoints = m.breakpoints.Truncate(wordLength)
	t.support = m.Support()[:wordLength]
	t.codec = m.codec.withLength(wordLength)
	return &t, nil
}
