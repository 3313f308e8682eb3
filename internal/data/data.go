// Package data provides in-memory datasets and deterministic minibatch
// iteration for training loops.
package data

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Dataset holds paired inputs and outputs, one observation per row.
type Dataset struct {
	X *mat.Dense // n-by-d inputs
	Y *mat.Dense // n-by-p outputs
}

// New creates a dataset, checking that X and Y agree on the number of rows.
func New(x, y *mat.Dense) (*Dataset, error) {
	xr, _ := x.Dims()
	yr, _ := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("data: X has %d rows but Y has %d", xr, yr)
	}
	return &Dataset{X: x, Y: y}, nil
}

// N returns the number of observations.
func (d *Dataset) N() int {
	n, _ := d.X.Dims()
	return n
}

// FromCSV loads a dataset from a headerless CSV file whose first inputCols
// columns are inputs and whose remaining columns are outputs.
func FromCSV(path string, inputCols int) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("data: read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("data: %s is empty", path)
	}
	cols := len(records[0])
	if inputCols <= 0 || inputCols >= cols {
		return nil, fmt.Errorf("data: need 0 < input columns < %d, got %d", cols, inputCols)
	}

	n := len(records)
	x := mat.NewDense(n, inputCols, nil)
	y := mat.NewDense(n, cols-inputCols, nil)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, fmt.Errorf("data: row %d has %d columns, want %d", i, len(rec), cols)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("data: row %d column %d: %w", i, j, err)
			}
			if j < inputCols {
				x.Set(i, j, v)
			} else {
				y.Set(i, j-inputCols, v)
			}
		}
	}
	return New(x, y)
}

// Batcher yields shuffled minibatches, reshuffling at every epoch boundary.
//
// Shuffling is driven by a PCG source seeded at construction, so two
// Batchers with the same seed over the same dataset produce identical batch
// sequences. That is what makes seeded training runs bit-reproducible.
type Batcher struct {
	ds   *Dataset
	size int
	rng  *rand.Rand
	perm []int
	pos  int
}

// NewBatcher creates a Batcher with the given batch size and seed. A size
// of zero or more than the dataset yields full-dataset batches.
func NewBatcher(ds *Dataset, size int, seed uint64) *Batcher {
	if size <= 0 || size > ds.N() {
		size = ds.N()
	}
	b := &Batcher{
		ds:   ds,
		size: size,
		rng:  rand.New(rand.NewPCG(seed, seed)),
	}
	b.reshuffle()
	return b
}

func (b *Batcher) reshuffle() {
	b.perm = b.rng.Perm(b.ds.N())
	b.pos = 0
}

// Next returns the next minibatch as freshly allocated matrices.
func (b *Batcher) Next() (x, y *mat.Dense) {
	if b.pos+b.size > len(b.perm) {
		b.reshuffle()
	}
	_, d := b.ds.X.Dims()
	_, p := b.ds.Y.Dims()
	x = mat.NewDense(b.size, d, nil)
	y = mat.NewDense(b.size, p, nil)
	for i := 0; i < b.size; i++ {
		row := b.perm[b.pos+i]
		for j := 0; j < d; j++ {
			x.Set(i, j, b.ds.X.At(row, j))
		}
		for j := 0; j < p; j++ {
			y.Set(i, j, b.ds.Y.At(row, j))
		}
	}
	b.pos += b.size
	return x, y
}
