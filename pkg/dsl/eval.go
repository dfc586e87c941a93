package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/prodrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("product", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，使用 CEL (Common Expression Language) 语法。
// 编译一次，可并发多次求值。
//
// 可用变量：
//   - product：商品属性（core.Product.Attributes 的 key，如 product.brand、product.price_usd）
//   - item：召回结果 {id, row, score, meta, labels}
//   - label：item 的 label 值，如 label.recall_source
//   - rctx：请求上下文 {query, n, scene, params}
//
// 示例：
//   - `product.brand == "Nivea" && product.price_usd < 30.0`
//   - `product.cruelty_free == true`
//   - `item.score > 0.5 && label.recall_source == "content"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModuleDSL, core.ErrorCodeInvalidInput,
			fmt.Sprintf("compile %q", expr), issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, core.NewDomainError(core.ModuleDSL, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expression %q must return bool, got %s", expr, out))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// MatchProduct 对单个商品求值（只绑定 product 变量）。
func (p *Program) MatchProduct(product *core.Product) (bool, error) {
	return p.eval(map[string]any{
		"product": product.Attributes(),
		"item":    map[string]any{},
		"label":   map[string]any{},
		"rctx":    map[string]any{},
	})
}

// MatchItem 对召回结果求值；product 为 nil 时使用 item.Meta 作为商品属性。
func (p *Program) MatchItem(item *core.Item, product *core.Product, rctx *core.RecommendContext) (bool, error) {
	return p.eval(BuildInput(item, product, rctx))
}

func (p *Program) eval(input map[string]any) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(input)
	if err != nil {
		// 访问不存在的 key 会报错，用 has(product.key) 或 label.key != null 判断存在性
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// BuildInput 构建 CEL 表达式的输入数据
func BuildInput(item *core.Item, product *core.Product, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	labelAccessor := make(map[string]any)
	var itemMap map[string]any
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]any{
				"value":  v.Value,
				"source": v.Source,
			}
			labelAccessor[k] = v.Value
		}
		itemMap = map[string]any{
			"id":     item.ID,
			"row":    item.Row,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		}
	} else {
		itemMap = map[string]any{}
	}

	productAttrs := map[string]any{}
	switch {
	case product != nil:
		productAttrs = product.Attributes()
	case item != nil && item.Meta != nil:
		// 召回节点会把商品属性写入 Meta
		productAttrs = item.Meta
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap = map[string]any{
			"query":  rctx.Query,
			"n":      rctx.N,
			"scene":  rctx.Scene,
			"params": rctx.Params,
		}
	}

	return map[string]any{
		"product": productAttrs,
		"item":    itemMap,
		"label":   labelAccessor,
		"rctx":    rctxMap,
	}
}
