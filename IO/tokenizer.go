package IO

import (
	"bufio"
	"io"
	"strings"

	porterstemmer "github.com/kiteco/go-porterstemmer"
	"github.com/pkg/errors"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"

	"github.com/QuoteVote/quotevote-ai/params"
)

// Tokenizer turns free text into fixed-length id sequences: normalise,
// split words from punctuation, reduce words to stems, look them up.
// It holds no mutable state and is safe for concurrent use.
type Tokenizer struct {
	vocab      params.Vocabulary
	normalizer *normalizer.BertNormalizer
	pre        *pretokenizer.BertPreTokenizer
}

func NewTokenizer(v params.Vocabulary) *Tokenizer {
	return &Tokenizer{
		vocab: v,
		// clean control chars, space out CJK, lower-case, keep accents
		normalizer: normalizer.NewBertNormalizer(true, true, true, false),
		pre:        pretokenizer.NewBertPreTokenizer(),
	}
}

func (tk *Tokenizer) Vocabulary() params.Vocabulary { return tk.vocab }

// Words splits normalised text on whitespace and punctuation.
func (tk *Tokenizer) Words(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	// the normalizer indexes by rune width and overruns on broken sequences
	text = strings.ToValidUTF8(text, "\uFFFD")
	n, err := tk.normalizer.Normalize(normalizer.NewNormalizedFrom(text))
	if err != nil {
		return nil, errors.Wrap(err, "normalizing")
	}
	pt, err := tk.pre.PreTokenize(tokenizer.NewPreTokenizedStringFromNS(n))
	if err != nil {
		return nil, errors.Wrap(err, "pre-tokenizing")
	}
	splits := pt.GetSplits(normalizer.NormalizedTarget, tokenizer.Byte)
	words := make([]string, 0, len(splits))
	for _, s := range splits {
		if s.Value != "" {
			words = append(words, s.Value)
		}
	}
	return words, nil
}

// Stems returns the lower-cased Porter stem of every word and punctuation
// mark. Stems are not dictionary lemmas: "was" stems to "wa".
func (tk *Tokenizer) Stems(text string) ([]string, error) {
	words, err := tk.Words(text)
	if err != nil {
		return nil, err
	}
	for i, w := range words {
		words[i] = porterstemmer.StemString(w)
	}
	return words, nil
}

// Encode returns exactly maxLen ids. Unknown stems map to the unknown id,
// short inputs are right-padded and long ones truncated.
func (tk *Tokenizer) Encode(text string, maxLen int) ([]int, error) {
	if maxLen <= 0 {
		return nil, errors.Errorf("max length %d must be positive", maxLen)
	}
	stems, err := tk.Stems(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int, maxLen) // zero is the padding id
	for i, l := range stems {
		if i == maxLen {
			break
		}
		ids[i] = VocabLookup(tk.vocab, l)
	}
	return ids, nil
}

// CountStems tallies stem frequencies over every line of r.
func (tk *Tokenizer) CountStems(r io.Reader) (map[string]int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<24)
	counts := make(map[string]int, 1<<12)
	for sc.Scan() {
		stems, err := tk.Stems(sc.Text())
		if err != nil {
			return nil, err
		}
		for _, l := range stems {
			counts[l]++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning corpus")
	}
	return counts, nil
}
