// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides dataset containers and seeded minibatch iteration.
package data

import (
	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/internal/data"
)

// Dataset is a paired matrix of inputs and outputs with matching rows.
type Dataset = data.Dataset

// Batcher draws shuffled minibatches from a Dataset. Two Batchers built
// with the same seed produce identical batch sequences.
type Batcher = data.Batcher

// New returns a dataset over the matrices x and y.
func New(x, y *mat.Dense) (*Dataset, error) {
	return data.New(x, y)
}

// FromCSV loads a headerless CSV file where the first inputCols columns
// are inputs and the remainder outputs.
func FromCSV(path string, inputCols int) (*Dataset, error) {
	return data.FromCSV(path, inputCols)
}

// NewBatcher returns a seeded minibatch iterator over ds.
func NewBatcher(ds *Dataset, size int, seed uint64) *Batcher {
	return data.NewBatcher(ds, size, seed)
}
