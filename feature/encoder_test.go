package feature

import (
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/prodrec/core"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog([]core.Product{
		{Name: "A", PriceUSD: 10, Rating: 4, NumberOfReviews: 100, Brand: "Zeta", Category: "Soap", CrueltyFree: "True"},
		{Name: "B", PriceUSD: 20, Rating: 4, NumberOfReviews: 300, Brand: "Alpha", Category: "Soap", CrueltyFree: "False"},
		{Name: "C", PriceUSD: 30, Rating: 4, NumberOfReviews: 200, Brand: "Zeta", Category: "Lotion", CrueltyFree: "True"},
	})
}

func testColumns() Columns {
	return Columns{
		Numeric:     []string{core.ColumnPriceUSD, core.ColumnRating},
		Categorical: []string{core.ColumnBrand, core.ColumnCategory},
	}
}

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics([]float64{3, 1, 2})
	if stats.Mean != 2 {
		t.Errorf("Mean = %v, want 2", stats.Mean)
	}
	if want := math.Sqrt(2.0 / 3.0); math.Abs(stats.Std-want) > 1e-12 {
		t.Errorf("Std = %v, want population std %v", stats.Std, want)
	}
	if empty := ComputeStatistics(nil); empty.Mean != 0 || empty.Std != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestZScoreNormalizer_ZeroStdCenters(t *testing.T) {
	n := NewZScoreNormalizer(map[string]float64{"x": 5}, map[string]float64{"x": 0})
	if got := n.NormalizeValueWithKey("x", 5); got != 0 {
		t.Errorf("constant column encoded as %v, want 0", got)
	}
	if got := n.NormalizeValueWithKey("x", 7); got != 2 {
		t.Errorf("centered value = %v, want 2", got)
	}
}

func TestFit_Layout(t *testing.T) {
	state, m, err := FitTransform(testCatalog(), testColumns())
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	wantNames := []string{
		"num__Price_USD",
		"num__Rating",
		"cat__Brand_Alpha",
		"cat__Brand_Zeta",
		"cat__Category_Lotion",
		"cat__Category_Soap",
	}
	if got := state.FeatureNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("FeatureNames() = %v, want %v", got, wantNames)
	}
	if m.Rows != 3 || m.Cols != len(wantNames) || state.Dim() != m.Cols {
		t.Fatalf("matrix shape %dx%d, dim %d", m.Rows, m.Cols, state.Dim())
	}

	// Rating 为常量列，编码为 0
	for row := 0; row < m.Rows; row++ {
		if got := m.At(row, 1); got != 0 {
			t.Errorf("row %d constant column = %v, want 0", row, got)
		}
	}
	// 价格 10/20/30 的 z-score 为 -s, 0, s
	if m.At(1, 0) != 0 || m.At(0, 0) != -m.At(2, 0) || m.At(2, 0) <= 0 {
		t.Errorf("price column = [%v %v %v]", m.At(0, 0), m.At(1, 0), m.At(2, 0))
	}

	wantRow0 := []float64{1, 0, 0, 1}
	if got := m.Row(0)[2:]; !reflect.DeepEqual(got, wantRow0) {
		t.Errorf("row 0 one-hot = %v, want %v", got, wantRow0)
	}
}

func TestEncodeProduct_UnknownCategoryIsZeroBlock(t *testing.T) {
	state, err := Fit(testCatalog(), testColumns())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	p := core.Product{Name: "New", PriceUSD: 20, Rating: 4, Brand: "Unseen", Category: "Soap"}
	got, err := EncodeProduct(&p, state)
	if err != nil {
		t.Fatalf("EncodeProduct() error = %v", err)
	}
	want := []float64{0, 0, 0, 0, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EncodeProduct() = %v, want %v", got, want)
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		catalog *core.Catalog
		cols    Columns
		check   func(error) bool
	}{
		{"empty catalog", core.NewCatalog(nil), testColumns(), core.IsEmptyCatalog},
		{"no columns", testCatalog(), Columns{}, core.IsSchema},
		{"categorical as numeric", testCatalog(), Columns{Numeric: []string{core.ColumnBrand}}, core.IsSchema},
		{"unknown column", testCatalog(), Columns{Categorical: []string{core.ColumnProductSize}}, core.IsSchema},
		{"duplicate column", testCatalog(), Columns{Numeric: []string{core.ColumnRating, core.ColumnRating}}, core.IsSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.catalog, tt.cols)
			if err == nil || !tt.check(err) {
				t.Errorf("Fit() error = %v", err)
			}
		})
	}
}

func TestFit_Deterministic(t *testing.T) {
	s1, m1, err := FitTransform(testCatalog(), DefaultColumns())
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	s2, m2, _ := FitTransform(testCatalog(), DefaultColumns())
	if !reflect.DeepEqual(s1, s2) {
		t.Error("encoder state differs between fits")
	}
	if !m1.Equal(m2) {
		t.Error("encoded matrix differs between fits")
	}
}
