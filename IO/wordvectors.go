package IO

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/params"
)

// LoadWordVectors builds a pre-trained embedding table aligned with v from a
// text file of "word v1 ... vD" lines.
func LoadWordVectors(path string, v params.Vocabulary) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening word vectors")
	}
	defer f.Close()
	table, found, err := ReadWordVectors(f, v)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if found == 0 {
		return nil, errors.Errorf("%s: no vocabulary word has a vector", path)
	}
	return table, nil
}

// ReadWordVectors returns a (VocabSize(v) x D) table and how many vocabulary
// rows were filled. Rows without a vector, padding included, stay zero.
func ReadWordVectors(r io.Reader, v params.Vocabulary) (*mat.Dense, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<24)

	var table *mat.Dense
	dim, found, line := 0, 0, 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if line == 1 && isCountHeader(fields) {
			continue
		}
		if dim == 0 {
			dim = len(fields) - 1
			table = mat.NewDense(VocabSize(v), dim, nil)
		}
		if len(fields)-1 != dim {
			return nil, 0, errors.Errorf("line %d: %d values, want %d", line, len(fields)-1, dim)
		}
		id, ok := v.TokenToID[strings.ToLower(fields[0])]
		if !ok || id == params.PadID {
			continue
		}
		row := table.RawRowView(id)
		for i, s := range fields[1:] {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "line %d", line)
			}
			row[i] = x
		}
		found++
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	if table == nil {
		return nil, 0, errors.New("no vectors")
	}
	return table, found, nil
}

// isCountHeader reports a word2vec "<count> <dim>" first line.
func isCountHeader(fields []string) bool {
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}
