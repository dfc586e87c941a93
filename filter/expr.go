package filter

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤：表达式为 true 的商品被保留，为 false 的被过滤。
//
// 示例：
//   - `product.cruelty_free == true`
//   - `product.price_usd <= 30.0 && product.gender_target != "Male"`
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.prg.MatchItem(item, nil, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
