package IO

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/QuoteVote/quotevote-ai/params"
)

// Special tokens kept at the start of the vocab
var special = []string{"<pad>", "<unk>"}

// NewVocabulary assigns ids to words after the special tokens, skipping
// duplicates. Words are lower-cased.
func NewVocabulary(words []string) params.Vocabulary {
	v := params.Vocabulary{TokenToID: map[string]int{}}
	for _, w := range append(append([]string{}, special...), words...) {
		w = strings.ToLower(w)
		if _, ok := v.TokenToID[w]; ok {
			continue
		}
		v.TokenToID[w] = len(v.IDToToken)
		v.IDToToken = append(v.IDToToken, w)
	}
	return v
}

func VocabLookup(v params.Vocabulary, tok string) int {
	if id, ok := v.TokenToID[tok]; ok {
		return id
	}
	return params.UnknownID
}

// VocabSize is the number of embedding rows the vocabulary addresses.
func VocabSize(v params.Vocabulary) int {
	n := len(v.IDToToken)
	for _, id := range v.TokenToID {
		if id+1 > n {
			n = id + 1
		}
	}
	return n
}

// ImportVocabJSON loads a vocabulary file.
func ImportVocabJSON(path string) (params.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return params.Vocabulary{}, errors.Wrap(err, "opening vocabulary")
	}
	defer f.Close()
	v, err := ReadVocab(f)
	if err != nil {
		return params.Vocabulary{}, errors.Wrapf(err, "reading %s", path)
	}
	return v, nil
}

// ReadVocab accepts {"TokenToID": {...}, "IDToToken": [...]} or a bare
// {word: id} object. Keys are lower-cased; on a collision the lower id wins.
func ReadVocab(r io.Reader) (params.Vocabulary, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return params.Vocabulary{}, errors.Wrap(err, "decoding vocabulary")
	}

	var data struct {
		TokenToID map[string]int `json:"TokenToID"`
		IDToToken []string       `json:"IDToToken"`
	}
	if body, ok := raw["TokenToID"]; ok && len(body) > 0 && body[0] == '{' {
		if err := json.Unmarshal(body, &data.TokenToID); err != nil {
			return params.Vocabulary{}, errors.Wrap(err, "decoding TokenToID")
		}
		if ids, ok := raw["IDToToken"]; ok {
			if err := json.Unmarshal(ids, &data.IDToToken); err != nil {
				return params.Vocabulary{}, errors.Wrap(err, "decoding IDToToken")
			}
		}
	} else {
		data.TokenToID = make(map[string]int, len(raw))
		for k, body := range raw {
			var id int
			if err := json.Unmarshal(body, &id); err != nil {
				return params.Vocabulary{}, errors.Wrapf(err, "id for %q", k)
			}
			data.TokenToID[k] = id
		}
	}

	v := params.Vocabulary{TokenToID: make(map[string]int, len(data.TokenToID))}
	for k, id := range data.TokenToID {
		if id < 0 {
			return params.Vocabulary{}, errors.Errorf("negative id %d for %q", id, k)
		}
		k = strings.ToLower(k)
		if prev, ok := v.TokenToID[k]; ok && prev < id {
			continue
		}
		v.TokenToID[k] = id
	}

	// IDToToken is rebuilt so it agrees with the folded keys.
	v.IDToToken = make([]string, max(VocabSize(v), len(data.IDToToken)))
	for k, id := range v.TokenToID {
		v.IDToToken[id] = k
	}
	return v, nil
}

func ExportVocabJSON(path string, v params.Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating vocabulary file")
	}
	defer f.Close()
	data := map[string]any{
		"TokenToID": v.TokenToID,
		"IDToToken": v.IDToToken,
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// BuildVocab keeps the size-len(special) most frequent tokens, ties broken
// alphabetically.
func BuildVocab(counts map[string]int, size int) (params.Vocabulary, error) {
	if size < len(special) {
		return params.Vocabulary{}, errors.Errorf("vocab size %d must be >= %d", size, len(special))
	}
	type kv struct {
		k string
		v int
	}
	arr := make([]kv, 0, len(counts))
	for k, v := range counts {
		arr = append(arr, kv{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].v == arr[j].v {
			return arr[i].k < arr[j].k
		}
		return arr[i].v > arr[j].v
	})
	words := make([]string, 0, size)
	for _, p := range arr {
		if len(words)+len(special) >= size {
			break
		}
		words = append(words, p.k)
	}
	return NewVocabulary(words), nil
}
