package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/store"
)

func testItems() []*core.Item {
	products := []core.Product{
		{Name: "SoapB", Brand: "Nivea", PriceUSD: 11, CrueltyFree: "True"},
		{Name: "Lipstick X", Brand: "Fenty", PriceUSD: 35, CrueltyFree: "False"},
		{Name: "Serum Y", Brand: "Ordinary", PriceUSD: 28, CrueltyFree: "True"},
	}
	out := make([]*core.Item, 0, len(products))
	for i, p := range products {
		it := core.NewItem(p.Name, i+1)
		it.Meta = p.Attributes()
		out = append(out, it)
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestExprFilter(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{`product.cruelty_free == true`, []string{"SoapB", "Serum Y"}},
		{`product.price_usd < 30.0 && product.brand != "Nivea"`, []string{"Serum Y"}},
		{`item.score >= 0.0`, []string{"SoapB", "Lipstick X", "Serum Y"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			n := &FilterNode{Filters: []Filter{f}}
			out, err := n.Process(context.Background(), &core.RecommendContext{}, testItems())
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			got := ids(out)
			if len(got) != len(tt.want) {
				t.Fatalf("Process() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Process()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := NewExprFilter(`product.brand ==`); !core.IsInvalidInput(err) {
		t.Errorf("NewExprFilter(bad) error = %v", err)
	}
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	adapter := NewStoreAdapter(s)

	f := NewBlacklistFilter([]string{"SoapB"}, adapter, "bl")
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(ctx, &core.RecommendContext{}, testItems())
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); len(got) != 2 || got[0] != "Lipstick X" {
		t.Errorf("missing store key should behave as empty blacklist, got %v", got)
	}

	if err := adapter.SetBlacklist(ctx, "bl", []string{"Serum Y"}); err != nil {
		t.Fatal(err)
	}
	out, _ = (&FilterNode{Filters: []Filter{f}}).Process(ctx, &core.RecommendContext{}, testItems())
	if got := ids(out); len(got) != 1 || got[0] != "Lipstick X" {
		t.Errorf("Process() = %v, want [Lipstick X]", got)
	}
}

type brokenFilter struct{}

func (brokenFilter) Name() string { return "broken" }
func (brokenFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func TestFilterNode_ErrorKeepsItem(t *testing.T) {
	l := logging.Nop()
	n := &FilterNode{Filters: []Filter{brokenFilter{}}, Logger: &l}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, testItems())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("Process() kept %d items, want 3", len(out))
	}
}

func TestFilterNode_LabelsFiltered(t *testing.T) {
	items := testItems()
	n := &FilterNode{Filters: []Filter{NewBlacklistFilter([]string{"SoapB"}, nil, "")}}
	if _, err := n.Process(context.Background(), &core.RecommendContext{}, items); err != nil {
		t.Fatal(err)
	}
	if lbl, ok := items[0].Labels["filtered"]; !ok || lbl.Source != "filter.blacklist" {
		t.Errorf("filtered label = %+v", items[0].Labels)
	}
}
