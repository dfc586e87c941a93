package catalog

import (
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/dsl"
)

// Criteria 是目录筛选条件，空字段表示不限。
// 价格区间为闭区间，MinPrice / MaxPrice 为 nil 表示不设限。
type Criteria struct {
	Brand        string   `json:"brand,omitempty"`
	SkinType     string   `json:"skin_type,omitempty"`
	GenderTarget string   `json:"gender_target,omitempty"`
	CrueltyFree  *bool    `json:"cruelty_free,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
}

// Match 判断商品是否满足条件
func (c Criteria) Match(p *core.Product) bool {
	if c.Brand != "" && p.Brand != c.Brand {
		return false
	}
	if c.SkinType != "" && p.SkinType != c.SkinType {
		return false
	}
	if c.GenderTarget != "" && p.GenderTarget != c.GenderTarget {
		return false
	}
	if c.CrueltyFree != nil {
		v, ok := p.IsCrueltyFree()
		if !ok || v != *c.CrueltyFree {
			return false
		}
	}
	if c.MinPrice != nil && p.PriceUSD < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && p.PriceUSD > *c.MaxPrice {
		return false
	}
	return true
}

// Filter 返回满足条件的商品（保持目录顺序）。
func Filter(c *core.Catalog, criteria Criteria) []core.Product {
	return pick(c, c.Select(func(_ int, p *core.Product) bool { return criteria.Match(p) }))
}

// Expr 按 CEL 表达式筛选商品，如 `product.brand == "Nivea" && product.price_usd < 20.0`。
func Expr(c *core.Catalog, expr string) ([]core.Product, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	var evalErr error
	rows := c.Select(func(_ int, p *core.Product) bool {
		if evalErr != nil {
			return false
		}
		ok, err := prg.MatchProduct(p)
		if err != nil {
			evalErr = err
			return false
		}
		return ok
	})
	if evalErr != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			"catalog: filter expression "+expr, evalErr)
	}
	return pick(c, rows), nil
}

func pick(c *core.Catalog, rows []int) []core.Product {
	out := make([]core.Product, 0, len(rows))
	for _, row := range rows {
		p, _ := c.At(row)
		out = append(out, p)
	}
	return out
}

// Facets 是筛选控件的候选项
type Facets struct {
	Brands        []string `json:"brands"`
	SkinTypes     []string `json:"skin_types"`
	GenderTargets []string `json:"gender_targets"`
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
}

// BuildFacets 从目录计算筛选项
func BuildFacets(c *core.Catalog) Facets {
	minPrice, maxPrice := c.PriceRange()
	return Facets{
		Brands:        c.Distinct(core.ColumnBrand),
		SkinTypes:     c.Distinct(core.ColumnSkinType),
		GenderTargets: c.Distinct(core.ColumnGenderTarget),
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
	}
}
