package builders

import (
	"context"
	"testing"

	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/rerank"
	"github.com/rushteam/prodrec/store"
)

func items(products ...core.Product) []*core.Item {
	out := make([]*core.Item, 0, len(products))
	for i, p := range products {
		it := core.NewItem(p.Name, i)
		it.Meta = p.Attributes()
		out = append(out, it)
	}
	return out
}

func names(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSupportedTypes(t *testing.T) {
	want := map[string]bool{"filter.expr": true, "filter.blacklist": true, "rerank.diversity": true, "rerank.topn": true}
	for _, typ := range config.SupportedTypes() {
		delete(want, typ)
	}
	if len(want) != 0 {
		t.Errorf("missing registrations: %v", want)
	}
}

func TestLoadPostNodes(t *testing.T) {
	nodes, err := config.LoadPostNodes("../testdata/pipeline.yaml", nil)
	if err != nil {
		t.Fatalf("LoadPostNodes() error = %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(nodes))
	}
	if d, ok := nodes[2].(*rerank.Diversity); !ok || d.MaxPerValue != 2 {
		t.Errorf("nodes[2] = %#v", nodes[2])
	}

	in := items(
		core.Product{Name: "SoapB", Brand: "Nivea", CrueltyFree: "True"},
		core.Product{Name: "Lipstick", Brand: "Fenty", CrueltyFree: "False"},
		core.Product{Name: "Cream", Brand: "Nivea", CrueltyFree: "True"},
		core.Product{Name: "Lotion", Brand: "Nivea", CrueltyFree: "True"},
		core.Product{Name: "Balm", Brand: "Nivea", CrueltyFree: "True"},
	)
	p := &pipeline.Pipeline{Nodes: nodes}
	out, err := p.Run(context.Background(), &core.RecommendContext{Query: "SoapA"}, in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := names(out)
	want := []string{"Cream", "Lotion"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestBuildPostNodes_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "pipeline:\n  nodes:\n    - type: rank.lr\n"},
		{"missing expr", "pipeline:\n  nodes:\n    - type: filter.expr\n"},
		{"bad expr", "pipeline:\n  nodes:\n    - type: filter.expr\n      config:\n        expr: 'product.brand =='\n"},
		{"blacklist key without store", "pipeline:\n  nodes:\n    - type: filter.blacklist\n      config:\n        key: bl\n"},
		{"negative topn", "pipeline:\n  nodes:\n    - type: rerank.topn\n      config:\n        n: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pipeline.ParseYAML([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseYAML() error = %v", err)
			}
			if _, err := config.BuildPostNodes(cfg, nil); !core.IsInvalidInput(err) {
				t.Errorf("BuildPostNodes() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestBlacklistFromStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	if err := filter.NewStoreAdapter(s).SetBlacklist(ctx, "blacklist/similar", []string{"Lipstick"}); err != nil {
		t.Fatalf("SetBlacklist() error = %v", err)
	}
	cfg, _ := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: filter.blacklist\n      config:\n        key: blacklist/similar\n"))
	nodes, err := config.BuildPostNodes(cfg, s)
	if err != nil {
		t.Fatalf("BuildPostNodes() error = %v", err)
	}
	out, err := nodes[0].Process(ctx, &core.RecommendContext{}, items(
		core.Product{Name: "SoapB"},
		core.Product{Name: "Lipstick"},
	))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := names(out); len(got) != 1 || got[0] != "SoapB" {
		t.Errorf("Process() = %v", got)
	}
}

func TestBuildPostNodes_Nil(t *testing.T) {
	nodes, err := config.BuildPostNodes(nil, nil)
	if err != nil || len(nodes) != 0 {
		t.Errorf("BuildPostNodes(nil) = %v, %v", nodes, err)
	}
}
