package IO

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuoteVote/quotevote-ai/params"
)

func TestNewVocabulary(t *testing.T) {
	v := NewVocabulary([]string{"Cat", "run", "cat"})
	assert.Equal(t, []string{"<pad>", "<unk>", "cat", "run"}, v.IDToToken)
	assert.Equal(t, params.PadID, v.TokenToID["<pad>"])
	assert.Equal(t, params.UnknownID, v.TokenToID["<unk>"])
	assert.Equal(t, 2, VocabLookup(v, "cat"))
	assert.Equal(t, params.UnknownID, VocabLookup(v, "dog"))
	assert.Equal(t, 4, VocabSize(v))
}

func TestReadVocabFormats(t *testing.T) {
	structured := `{"TokenToID": {"<pad>": 0, "<unk>": 1, "Hello": 2}, "IDToToken": ["<pad>", "<unk>", "Hello"]}`
	v, err := ReadVocab(strings.NewReader(structured))
	require.NoError(t, err)
	assert.Equal(t, 2, v.TokenToID["hello"])
	assert.Equal(t, "hello", v.IDToToken[2])

	bare := `{"Apple": 7, "apple": 3, "pear": 2}`
	v, err = ReadVocab(strings.NewReader(bare))
	require.NoError(t, err)
	assert.Equal(t, 3, v.TokenToID["apple"])
	assert.Len(t, v.TokenToID, 2)
	assert.Equal(t, 4, VocabSize(v))
	assert.Equal(t, "pear", v.IDToToken[2])

	_, err = ReadVocab(strings.NewReader(`{"a": "x"}`))
	require.Error(t, err)
	_, err = ReadVocab(strings.NewReader(`{"a": -2}`))
	require.Error(t, err)
	_, err = ReadVocab(strings.NewReader(`[1,2]`))
	require.Error(t, err)
}

func TestVocabJSONRoundTrip(t *testing.T) {
	v := NewVocabulary([]string{"great", "job"})
	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, ExportVocabJSON(path, v))

	got, err := ImportVocabJSON(path)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = ImportVocabJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestBuildVocab(t *testing.T) {
	counts := map[string]int{"b": 5, "a": 5, "c": 9, "d": 1}
	v, err := BuildVocab(counts, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"<pad>", "<unk>", "c", "a", "b"}, v.IDToToken)

	_, err = BuildVocab(counts, 1)
	require.Error(t, err)
}

func TestTokenizerWords(t *testing.T) {
	tk := NewTokenizer(NewVocabulary(nil))
	words, err := tk.Words("Hey friend!     How are you?")
	require.NoError(t, err)
	assert.Equal(t, []string{"hey", "friend", "!", "how", "are", "you", "?"}, words)

	words, err = tk.Words("")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestTokenizerStems(t *testing.T) {
	tk := NewTokenizer(NewVocabulary(nil))
	stems, err := tk.Stems("Cats running, great job")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "run", ",", "great", "job"}, stems)

	stems, err = tk.Stems("it was")
	require.NoError(t, err)
	assert.Equal(t, []string{"it", "wa"}, stems)
}

func TestTokenizerInvalidUTF8(t *testing.T) {
	tk := NewTokenizer(NewVocabulary([]string{"ok"}))
	for _, text := range []string{"ok \xc3", "\xff\xfe", "caf\xe9 ok"} {
		t.Run(text, func(t *testing.T) {
			var ids []int
			var err error
			require.NotPanics(t, func() { ids, err = tk.Encode(text, 6) })
			require.NoError(t, err)
			assert.Len(t, ids, 6)
		})
	}
	ids, err := tk.Encode("ok \xc3", 6)
	require.NoError(t, err)
	assert.Equal(t, 2, ids[0])
}

func TestTokenizerEncode(t *testing.T) {
	tk := NewTokenizer(NewVocabulary([]string{"cat", "run", "great"}))

	ids, err := tk.Encode("Cats running fast", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1, 0, 0}, ids)

	ids, err = tk.Encode("great GREAT great", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, ids)

	ids, err = tk.Encode("", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, ids)

	_, err = tk.Encode("cat", 0)
	require.Error(t, err)
}

func TestCountStems(t *testing.T) {
	tk := NewTokenizer(NewVocabulary(nil))
	counts, err := tk.CountStems(strings.NewReader("cats run\nthe cat ran\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, counts["cat"])
	assert.Equal(t, 1, counts["the"])
}

func TestReadWordVectors(t *testing.T) {
	v := NewVocabulary([]string{"cat", "dog", "emu"})
	file := "the 9 9 9\nCat 1 2 3\ndog -1 0 0.5\n"
	table, found, err := ReadWordVectors(strings.NewReader(file), v)
	require.NoError(t, err)
	assert.Equal(t, 2, found)

	r, c := table.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{1, 2, 3}, table.RawRowView(2))
	assert.Equal(t, []float64{-1, 0, 0.5}, table.RawRowView(3))
	assert.Equal(t, []float64{0, 0, 0}, table.RawRowView(4))
	assert.Equal(t, []float64{0, 0, 0}, table.RawRowView(params.PadID))

	table, found, err = ReadWordVectors(strings.NewReader("400000 3\ncat 1 2 3\nemu 4 5 6\n"), v)
	require.NoError(t, err)
	assert.Equal(t, 2, found)
	_, c = table.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{4, 5, 6}, table.RawRowView(4))

	_, _, err = ReadWordVectors(strings.NewReader("cat 1 2\ndog 1\n"), v)
	require.Error(t, err)
	_, _, err = ReadWordVectors(strings.NewReader("cat 1 x\n"), v)
	require.Error(t, err)
	_, _, err = ReadWordVectors(strings.NewReader(""), v)
	require.Error(t, err)
}
