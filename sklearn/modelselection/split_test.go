package modelselection

import (
	"math/rand/v2"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKFold_Partition(t *testing.T) {
	tests := []struct {
		n, k      int
		wantSizes []int
	}{
		{10, 5, []int{2, 2, 2, 2, 2}},
		{11, 5, []int{3, 2, 2, 2, 2}},
		{308, 20, nil},
		{7, 7, []int{1, 1, 1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		folds, err := NewKFold(tt.k).Split(tt.n)
		if err != nil {
			t.Fatalf("n=%d k=%d: %v", tt.n, tt.k, err)
		}
		if len(folds) != tt.k {
			t.Fatalf("got %d folds, want %d", len(folds), tt.k)
		}

		seen := make([]int, tt.n)
		next := 0
		for i, f := range folds {
			if tt.wantSizes != nil && len(f.TestIndices) != tt.wantSizes[i] {
				t.Errorf("n=%d k=%d fold %d: test size %d, want %d", tt.n, tt.k, i, len(f.TestIndices), tt.wantSizes[i])
			}
			if len(f.TrainIndices)+len(f.TestIndices) != tt.n {
				t.Errorf("fold %d: train+test = %d, want %d", i, len(f.TrainIndices)+len(f.TestIndices), tt.n)
			}
			for _, idx := range f.TestIndices {
				if idx != next {
					t.Errorf("fold %d: test folds should be contiguous, got %d want %d", i, idx, next)
				}
				next++
				seen[idx]++
			}
			if !sort.IntsAreSorted(f.TrainIndices) {
				t.Errorf("fold %d: train indices not sorted", i)
			}
			inTest := map[int]bool{}
			for _, idx := range f.TestIndices {
				inTest[idx] = true
			}
			for _, idx := range f.TrainIndices {
				if inTest[idx] {
					t.Errorf("fold %d: index %d in both train and test", i, idx)
				}
			}
		}
		for idx, c := range seen {
			if c != 1 {
				t.Errorf("n=%d k=%d: index %d appears %d times across test folds", tt.n, tt.k, idx, c)
			}
		}
	}
}

func TestKFold_Errors(t *testing.T) {
	if _, err := NewKFold(1).Split(10); err == nil {
		t.Error("k=1 should fail")
	}
	if _, err := NewKFold(5).Split(3); err == nil {
		t.Error("k > n should fail")
	}
}

func TestFolds_MSD(t *testing.T) {
	n := MSDTrainSize + 51630
	folds, err := Folds("msd", n, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(folds) != 1 {
		t.Fatalf("msd should give exactly one fold, got %d", len(folds))
	}
	f := folds[0]
	if len(f.TrainIndices) != MSDTrainSize || f.TrainIndices[0] != 0 || f.TrainIndices[MSDTrainSize-1] != MSDTrainSize-1 {
		t.Errorf("train should be [0, %d)", MSDTrainSize)
	}
	if len(f.TestIndices) != n-MSDTrainSize || f.TestIndices[0] != MSDTrainSize || f.TestIndices[len(f.TestIndices)-1] != n-1 {
		t.Errorf("test should be [%d, %d)", MSDTrainSize, n)
	}

	if _, err := Folds("msd", 1000, 20); err == nil {
		t.Error("msd split on a short table should fail")
	}
	if folds, _ := Folds("yacht", 308, 20); len(folds) != 20 {
		t.Errorf("non-msd datasets should use k-fold, got %d folds", len(folds))
	}
}

func TestTrainTestSplit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	train, test, err := TrainTestSplit(11, 0.2, rng)
	if err != nil {
		t.Fatal(err)
	}
	// ceil(0.2*11) = 3
	if len(test) != 3 || len(train) != 8 {
		t.Fatalf("sizes train=%d test=%d, want 8 and 3", len(train), len(test))
	}
	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("train and test should partition 0..10, got %v", all)
		}
	}

	_, again, _ := TrainTestSplit(11, 0.2, rand.New(rand.NewPCG(1, 0)))
	for i := range test {
		if test[i] != again[i] {
			t.Fatal("same seed should reproduce the split")
		}
	}

	if _, _, err := TrainTestSplit(10, 1.2, rng); err == nil {
		t.Error("test size outside (0,1) should fail")
	}
	if _, _, err := TrainTestSplit(1, 0.2, rng); err == nil {
		t.Error("one sample cannot be split")
	}
}

func TestTakeRowsKeepsAlignment(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 10,
		1, 11,
		2, 12,
		3, 13,
	})
	y := mat.NewVecDense(4, []float64{100, 101, 102, 103})
	idx := []int{3, 0, 2}

	Xs := TakeRows(X, idx)
	ys := TakeVec(y, idx)
	for k, i := range idx {
		if Xs.At(k, 0) != float64(i) || Xs.At(k, 1) != float64(10+i) || ys.AtVec(k) != float64(100+i) {
			t.Errorf("row %d not aligned with source row %d", k, i)
		}
	}

	// non-Dense input goes through At
	Xt := TakeRows(X.T(), []int{1})
	if Xt.At(0, 3) != 13 {
		t.Errorf("TakeRows on a transposed view: got %v", Xt.At(0, 3))
	}
}
