package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/utils"
)

func brandItems(brands ...string) []*core.Item {
	out := make([]*core.Item, 0, len(brands))
	for i, b := range brands {
		it := core.NewItem(string(rune('a'+i)), i)
		if b != "" {
			it.Meta["brand"] = b
		}
		out = append(out, it)
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		n, in, want int
	}{
		{3, 5, 3},
		{5, 2, 2},
		{0, 4, 4},
		{-1, 4, 4},
	}
	for _, tt := range tests {
		items := brandItems(make([]string, tt.in)...)
		out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, items)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != tt.want {
			t.Errorf("TopN(%d) on %d items = %d, want %d", tt.n, tt.in, len(out), tt.want)
		}
	}
}

func TestDiversity(t *testing.T) {
	items := brandItems("Nivea", "Nivea", "Fenty", "", "Nivea", "Fenty")
	out, err := (&Diversity{}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range out {
		got = append(got, it.ID)
	}
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Diversity() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Diversity()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	out, _ = (&Diversity{MaxPerValue: 2}).Process(context.Background(), nil, brandItems("Nivea", "Nivea", "Nivea"))
	if len(out) != 2 {
		t.Errorf("MaxPerValue=2 kept %d", len(out))
	}
}

func TestDiversity_LabelTakesPrecedence(t *testing.T) {
	items := brandItems("Nivea", "Nivea")
	items[1].PutLabel("brand", utils.Label{Value: "Other", Source: "rule"})
	out, _ := (&Diversity{}).Process(context.Background(), nil, items)
	if len(out) != 2 {
		t.Errorf("label override ignored, kept %d", len(out))
	}
}
