package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuoteVote/quotevote-ai/IO"
	"github.com/QuoteVote/quotevote-ai/api"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(&out, io.Discard).Run(context.Background(), append([]string{"quotevote-ai"}, args...))
	return out.String(), err
}

func TestReceptionCommand(t *testing.T) {
	out, err := run(t, "reception", "great", "job")
	require.NoError(t, err)

	var r api.Reception
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "10+", r.UpvoteRange)
	assert.Equal(t, 1.0, r.AgreementScore)
	assert.InDelta(t, 0.6, r.Confidence, 1e-12)

	_, err = run(t, "reception")
	require.Error(t, err)
}

func TestModelLifecycle(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.json")
	modelPath := filepath.Join(dir, "model.gob")
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("great job everyone\nthat is fake news\ngreat news\n"), 0o644))

	t.Setenv("SCORE_MODEL_KIND", "transformer")
	t.Setenv("SCORE_VOCAB_PATH", vocabPath)
	t.Setenv("SCORE_MODEL_PATH", modelPath)
	t.Setenv("SCORE_MAX_LENGTH", "8")
	t.Setenv("SCORE_VOCAB_LENGTH", "20")

	_, err := run(t, "export-vocab", "--corpus", corpus)
	require.NoError(t, err)
	vocab, err := IO.ImportVocabJSON(vocabPath)
	require.NoError(t, err)
	assert.Equal(t, 2, IO.VocabLookup(vocab, "great"))
	assert.LessOrEqual(t, IO.VocabSize(vocab), 20)

	_, err = run(t, "init-model")
	require.NoError(t, err)
	require.FileExists(t, modelPath)

	out, err := run(t, "score", "great", "news")
	require.NoError(t, err)
	var s api.Score
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "great news", s.Comment)
	assert.Contains(t, []float64{0, 1}, s.Confidence)
	assert.False(t, s.Significant)

	out, err = run(t, "score")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, api.Score{Comment: "Reddit Comment"}, s)

	data := filepath.Join(dir, "labelled.csv")
	require.NoError(t, os.WriteFile(data, []byte("label,comment\n0,great job\n1,fake news\n"), 0o644))
	out, err = run(t, "evaluate", "--data", data)
	require.NoError(t, err)
	var ev api.Evaluation
	require.NoError(t, json.NewDecoder(strings.NewReader(out)).Decode(&ev))
	assert.Equal(t, 2, ev.Total)
	assert.Contains(t, out, "%")
}

func TestInitModelNeedsVocab(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCORE_VOCAB_PATH", filepath.Join(dir, "missing.json"))
	_, err := run(t, "init-model", "--out", filepath.Join(dir, "m.gob"))
	require.Error(t, err)
}

func TestAccuracyBar(t *testing.T) {
	var buf bytes.Buffer
	accuracyBar(&buf, 0.5)
	assert.Equal(t, strings.Repeat("█", 20)+strings.Repeat("─", 20)+"  50.0%\n", buf.String())
}
