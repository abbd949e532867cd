package solve

import (
	"math"
	"testing"

	"github.com/gomdao/gomdao/internal/array"
)

func checkSolution(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-10 {
			t.Errorf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenseIdentity(t *testing.T) {
	a := array.FromSlice([]float64{1, 0, 0, 1}, array.Shape{2, 2})
	x, err := Dense(a, []float64{3, -7})
	if err != nil {
		t.Fatal(err)
	}
	checkSolution(t, x, []float64{3, -7})
}

func TestDensePivots(t *testing.T) {
	// Zero on the leading diagonal forces a row swap.
	a := array.FromSlice([]float64{0, 2, 1, 1}, array.Shape{2, 2})
	x, err := Dense(a, []float64{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	checkSolution(t, x, []float64{2, 1})
}

func TestDenseTridiagonal(t *testing.T) {
	a := array.FromSlice([]float64{
		-50, 25, 0,
		25, -50, 25,
		0, 25, -50,
	}, array.Shape{3, 3})
	want := []float64{1, 2, 3}

	// b = a * want.
	b := make([]float64, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			b[r] += a.At(r, c) * want[c]
		}
	}

	x, err := Dense(a, b)
	if err != nil {
		t.Fatal(err)
	}
	checkSolution(t, x, want)

	// The input matrix is untouched.
	if a.At(0, 0) != -50 || a.At(2, 1) != 25 {
		t.Error("Dense mutated its input")
	}
}

func TestDenseSingular(t *testing.T) {
	a := array.FromSlice([]float64{1, 2, 2, 4}, array.Shape{2, 2})
	if _, err := Dense(a, []float64{1, 1}); err != ErrSingular {
		t.Fatalf("err = %v, want ErrSingular", err)
	}
}

func TestDenseShapeErrors(t *testing.T) {
	if _, err := Dense(array.Zeros(array.Shape{3}), []float64{1, 2, 3}); err == nil {
		t.Error("expected an error for a 1-D matrix")
	}
	if _, err := Dense(array.Zeros(array.Shape{2, 3}), []float64{1, 2}); err == nil {
		t.Error("expected an error for a rectangular matrix")
	}
	if _, err := Dense(array.Zeros(array.Shape{2, 2}), []float64{1}); err == nil {
		t.Error("expected an error for a short rhs")
	}
}
