package dsl

import (
	"testing"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/utils"
)

func TestProgram_MatchProduct(t *testing.T) {
	p := &core.Product{Name: "SoapA", Brand: "Nivea", PriceUSD: 12.5, CrueltyFree: "True", SkinType: "Dry"}
	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{`product.brand == "Nivea"`, true},
		{`product.brand == "Dove"`, false},
		{`product.price_usd < 20.0 && product.cruelty_free == true`, true},
		{`product.skin_type in ["Oily", "Dry"]`, true},
		{`product.name.startsWith("Soap")`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := prg.MatchProduct(p)
			if err != nil {
				t.Fatalf("MatchProduct() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchProduct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgram_MatchItem(t *testing.T) {
	item := core.NewItem("SoapB", 1)
	item.Score = 0.8
	item.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
	rctx := &core.RecommendContext{Query: "SoapA", N: 3}

	prg, err := Compile(`item.score > 0.5 && label.recall_source == "content" && rctx.query == "SoapA"`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := prg.MatchItem(item, &core.Product{Name: "SoapB"}, rctx)
	if err != nil {
		t.Fatalf("MatchItem() error = %v", err)
	}
	if !got {
		t.Error("MatchItem() = false, want true")
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{`product.brand ==`, `1 + 2`} {
		if _, err := Compile(expr); !core.IsInvalidInput(err) {
			t.Errorf("Compile(%q) error = %v, want INVALID_INPUT", expr, err)
		}
	}
}
