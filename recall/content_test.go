package recall

import (
	"context"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/vector"
)

func testIndex(t *testing.T, mode vector.Mode) (vector.Index, *core.Catalog) {
	t.Helper()
	vecs, err := vector.FromRows([][]float64{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	idx, err := vector.NewIndex(context.Background(), mode, vecs, 2)
	if err != nil {
		t.Fatal(err)
	}
	cat := core.NewCatalog([]core.Product{
		{Name: "A", Brand: "X"},
		{Name: "B", Brand: "X"},
		{Name: "C", Brand: "Y"},
		{Name: "D", Brand: "Z"},
	})
	return idx, cat
}

func TestContent_Recall(t *testing.T) {
	for _, mode := range []vector.Mode{vector.ModeMatrix, vector.ModeOnDemand} {
		t.Run(string(mode), func(t *testing.T) {
			idx, cat := testIndex(t, mode)
			r := &Content{Index: idx, Catalog: cat, TopK: 2}
			items, err := r.Recall(context.Background(), &core.RecommendContext{Query: "A", QueryRow: 0})
			if err != nil {
				t.Fatalf("Recall() error = %v", err)
			}
			if len(items) != 2 || items[0].ID != "B" {
				t.Fatalf("Recall() = %v", items)
			}
			// C 与 D 都与 A 正交，分数相同时按行号升序
			if items[1].ID != "C" || items[1].Score != 0 {
				t.Errorf("tie break: got %s/%v", items[1].ID, items[1].Score)
			}
			if items[0].Meta["brand"] != "X" {
				t.Errorf("meta brand = %v", items[0].Meta["brand"])
			}
			if lbl := items[0].Labels["recall_mode"]; lbl.Value != string(mode) {
				t.Errorf("recall_mode = %q", lbl.Value)
			}
		})
	}
}

func TestContent_AllAndOutOfRange(t *testing.T) {
	idx, cat := testIndex(t, vector.ModeMatrix)
	r := &Content{Index: idx, Catalog: cat}

	items, _ := r.Process(context.Background(), &core.RecommendContext{QueryRow: 3}, nil)
	if len(items) != 3 {
		t.Errorf("TopK=0 returned %d items, want 3", len(items))
	}
	for _, it := range items {
		if it.Row == 3 {
			t.Error("query row included")
		}
	}

	items, err := r.Recall(context.Background(), &core.RecommendContext{QueryRow: 9})
	if err != nil || len(items) != 0 {
		t.Errorf("out of range = %v, %v", items, err)
	}

	empty := &Content{}
	if items, err := empty.Recall(context.Background(), &core.RecommendContext{}); err != nil || items != nil {
		t.Errorf("unconfigured Recall() = %v, %v", items, err)
	}
}
