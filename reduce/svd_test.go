package reduce

import (
	"math"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/vector"
)

func testMatrix(t *testing.T) *vector.Matrix {
	t.Helper()
	m, err := vector.FromRows([][]float64{
		{1, 0, 1, 0},
		{0.9, 0.1, 1, 0},
		{0, 1, 0, 1},
		{0, 0.8, 0.1, 1},
		{0.5, 0.5, 0.5, 0.5},
	})
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	return m
}

func TestFit_Shapes(t *testing.T) {
	m := testMatrix(t)
	tests := []struct {
		name     string
		rank     int
		wantRank int
	}{
		{"rank below limit", 2, 2},
		{"rank clamped to cols", 50, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Fit(m, tt.rank)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if s.Rank != tt.wantRank || s.Components.Rows != tt.wantRank || s.Components.Cols != m.Cols {
				t.Fatalf("rank %d, components %dx%d", s.Rank, s.Components.Rows, s.Components.Cols)
			}
			out, err := s.Transform(m)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if out.Rows != m.Rows || out.Cols != tt.wantRank {
				t.Errorf("reduced shape %dx%d", out.Rows, out.Cols)
			}
			for k := 1; k < len(s.SingularValues); k++ {
				if s.SingularValues[k] > s.SingularValues[k-1] {
					t.Errorf("singular values not descending: %v", s.SingularValues)
				}
			}
		})
	}
}

func TestFit_FullRankPreservesCosine(t *testing.T) {
	m := testMatrix(t)
	s, err := Fit(m, m.Cols)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	out, _ := s.Transform(m)
	// 满秩投影是正交变换，余弦相似度不变
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Rows; j++ {
			want := vector.Cosine(m.Row(i), m.Row(j))
			got := vector.Cosine(out.Row(i), out.Row(j))
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("cosine(%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestFit_DeterministicSign(t *testing.T) {
	m := testMatrix(t)
	a, _ := Fit(m, 3)
	b, _ := Fit(m, 3)
	if !a.Components.Equal(b.Components) {
		t.Error("components differ between fits")
	}
	for k := 0; k < a.Rank; k++ {
		row := a.Components.Row(k)
		best := 0
		for j := range row {
			if math.Abs(row[j]) > math.Abs(row[best]) {
				best = j
			}
		}
		if row[best] < 0 {
			t.Errorf("component %d largest loading is negative", k)
		}
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit(vector.NewMatrix(0, 0), 2); !core.IsEmptyCatalog(err) {
		t.Errorf("empty matrix error = %v", err)
	}
	if _, err := Fit(testMatrix(t), 0); !core.IsInvalidInput(err) {
		t.Errorf("zero rank error = %v", err)
	}
	s, _ := Fit(testMatrix(t), 2)
	if _, err := s.Transform(vector.NewMatrix(1, 3)); !core.IsInvalidInput(err) {
		t.Errorf("column mismatch error = %v", err)
	}
}
