package data_test

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/internal/data"
)

func testDataset(t *testing.T, n int) *data.Dataset {
	t.Helper()
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		x.Set(i, 1, float64(-i))
		y.Set(i, 0, float64(i*i))
	}
	ds, err := data.New(x, y)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ds
}

func TestNew_RowMismatch(t *testing.T) {
	x := mat.NewDense(3, 1, nil)
	y := mat.NewDense(4, 1, nil)
	if _, err := data.New(x, y); err == nil {
		t.Error("expected error for mismatched rows, got nil")
	}
}

// TestBatcher_EpochCoverage: within one epoch every observation appears
// exactly once across the batches.
func TestBatcher_EpochCoverage(t *testing.T) {
	ds := testDataset(t, 12)
	b := data.NewBatcher(ds, 4, 7)

	seen := make(map[float64]int)
	for batch := 0; batch < 3; batch++ {
		x, y := b.Next()
		r, _ := x.Dims()
		if r != 4 {
			t.Fatalf("batch has %d rows, want 4", r)
		}
		for i := 0; i < r; i++ {
			seen[x.At(i, 0)]++
			// Rows must stay paired with their outputs.
			if want := x.At(i, 0) * x.At(i, 0); y.At(i, 0) != want {
				t.Errorf("row %g paired with y = %g, want %g", x.At(i, 0), y.At(i, 0), want)
			}
		}
	}
	if len(seen) != 12 {
		t.Errorf("epoch covered %d distinct rows, want 12", len(seen))
	}
	for v, count := range seen {
		if count != 1 {
			t.Errorf("row %g appeared %d times in one epoch", v, count)
		}
	}
}

// TestBatcher_SeededDeterminism: two batchers with the same seed must
// produce bit-identical batch sequences across epoch boundaries.
func TestBatcher_SeededDeterminism(t *testing.T) {
	ds := testDataset(t, 10)
	a := data.NewBatcher(ds, 3, 42)
	b := data.NewBatcher(ds, 3, 42)

	for step := 0; step < 9; step++ {
		xa, ya := a.Next()
		xb, yb := b.Next()
		if !mat.Equal(xa, xb) || !mat.Equal(ya, yb) {
			t.Fatalf("batch %d differs between equally seeded batchers", step)
		}
	}

	// A different seed diverges somewhere in the first epoch.
	c := data.NewBatcher(ds, 3, 43)
	d := data.NewBatcher(ds, 3, 42)
	same := true
	for step := 0; step < 3; step++ {
		xc, _ := c.Next()
		xd, _ := d.Next()
		if !mat.Equal(xc, xd) {
			same = false
		}
	}
	if same {
		t.Error("differently seeded batchers produced identical epochs")
	}
}

// TestBatcher_FullDataset: size zero falls back to full-dataset batches.
func TestBatcher_FullDataset(t *testing.T) {
	ds := testDataset(t, 5)
	b := data.NewBatcher(ds, 0, 1)
	x, _ := b.Next()
	r, _ := x.Dims()
	if r != 5 {
		t.Errorf("full batch has %d rows, want 5", r)
	}
}

func TestFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	content := "0.1,0.2,1.0\n0.3,0.4,-1.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := data.FromCSV(path, 2)
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}
	if ds.N() != 2 {
		t.Fatalf("N = %d, want 2", ds.N())
	}
	if ds.X.At(1, 0) != 0.3 || ds.X.At(1, 1) != 0.4 {
		t.Errorf("X row 1 = (%g, %g), want (0.3, 0.4)", ds.X.At(1, 0), ds.X.At(1, 1))
	}
	if ds.Y.At(0, 0) != 1.0 || ds.Y.At(1, 0) != -1.0 {
		t.Errorf("Y = (%g, %g), want (1, -1)", ds.Y.At(0, 0), ds.Y.At(1, 0))
	}
}

func TestFromCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := data.FromCSV(filepath.Join(dir, "missing.csv"), 1); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("0.1,oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := data.FromCSV(bad, 1); err == nil {
		t.Error("expected error for non-numeric field")
	}

	narrow := filepath.Join(dir, "narrow.csv")
	if err := os.WriteFile(narrow, []byte("0.1,0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := data.FromCSV(narrow, 2); err == nil {
		t.Error("expected error when no output columns remain")
	}
}
