package api

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/predictor"
)

// Evaluation counts how many labelled comments the model gets right.
type Evaluation struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Label returns the model's class for one comment: the argmax class for the
// conv model, the rounded confidence (0 or 1) for the transformer.
func (s *Service) Label(ctx context.Context, comment string) (int, error) {
	if s.model.Kind() != predictor.KindConv {
		conf, err := s.Confidence(ctx, comment)
		return int(conf), err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ids, err := s.tok.Encode(comment, s.model.SequenceLength())
	if err != nil {
		return 0, errors.Wrap(err, "tokenizing comment")
	}
	out, err := s.model.Predict([][]int{ids})
	if err != nil {
		return 0, errors.Wrap(err, "running model")
	}
	return floats.MaxIdx(mat.Col(nil, 0, out)), nil
}

// Evaluate reads "label,comment" rows and scores each comment. A header row
// whose first field is not a number is skipped.
func (s *Service) Evaluate(ctx context.Context, r io.Reader) (Evaluation, error) {
	var ev Evaluation
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = 2
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ev, errors.Wrapf(err, "reading row %d", line)
		}
		want, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return ev, errors.Wrapf(err, "row %d label", line)
		}
		got, err := s.Label(ctx, record[1])
		if err != nil {
			return ev, errors.Wrapf(err, "row %d", line)
		}
		ev.Total++
		if got == want {
			ev.Correct++
		}
	}
	if ev.Total > 0 {
		ev.Accuracy = float64(ev.Correct) / float64(ev.Total)
	}
	s.log.Info("evaluation finished", "total", ev.Total, "correct", ev.Correct, "accuracy", ev.Accuracy)
	return ev, nil
}
