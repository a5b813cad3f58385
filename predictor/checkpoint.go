package predictor

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// A checkpoint stores every named parameter as dims plus flat row-major data.
type tensorData struct {
	Rows, Cols int
	Data       []float64
}

type checkpointData struct {
	Kind    string
	Tensors map[string]tensorData
}

// WriteCheckpoint gob-encodes the parameters of p to w.
func WriteCheckpoint(w io.Writer, p Predictor) error {
	data := checkpointData{Kind: p.Kind(), Tensors: map[string]tensorData{}}
	for name, m := range p.StateDict() {
		r, c := m.Dims()
		raw := mat.DenseCopyOf(m).RawMatrix()
		data.Tensors[name] = tensorData{Rows: r, Cols: c, Data: raw.Data}
	}
	if err := gob.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("WriteCheckpoint: %w", err)
	}
	return nil
}

// ReadCheckpoint decodes a checkpoint from r into p.
func ReadCheckpoint(r io.Reader, p Predictor) error {
	var data checkpointData
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("ReadCheckpoint: %w", err)
	}
	if data.Kind != p.Kind() {
		return fmt.Errorf("ReadCheckpoint: checkpoint holds a %s model, have %s", data.Kind, p.Kind())
	}
	tensors := make(map[string]*mat.Dense, len(data.Tensors))
	for name, t := range data.Tensors {
		if t.Rows <= 0 || t.Cols <= 0 || len(t.Data) != t.Rows*t.Cols {
			return fmt.Errorf("ReadCheckpoint: tensor %q is corrupt (%d x %d, %d values)", name, t.Rows, t.Cols, len(t.Data))
		}
		tensors[name] = mat.NewDense(t.Rows, t.Cols, t.Data)
	}
	if err := p.LoadStateDict(tensors); err != nil {
		return fmt.Errorf("ReadCheckpoint: %w", err)
	}
	return nil
}

// Save persists the parameters of p to path, creating parent directories.
func Save(p Predictor, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteCheckpoint(w, p); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load replaces the parameters of p with those stored at path.
func Load(p Predictor, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReadCheckpoint(bufio.NewReader(f), p)
}
