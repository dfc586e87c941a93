package feature

import (
	"fmt"
	"sort"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/vector"
)

// OneHotEncoder One-Hot 编码（独热编码）
// 将类别特征转换为二进制向量，每个类别对应一个维度。
// 拟合时未见过的类别编码为全 0 块，不会报错。
type OneHotEncoder struct {
	Categories map[string][]string // 每个特征名对应的类别列表（有序）

	index map[string]map[string]int
}

// NewOneHotEncoder 创建 One-Hot 编码器
func NewOneHotEncoder(categories map[string][]string) *OneHotEncoder {
	e := &OneHotEncoder{
		Categories: categories,
		index:      make(map[string]map[string]int, len(categories)),
	}
	for key, cats := range categories {
		pos := make(map[string]int, len(cats))
		for i, cat := range cats {
			pos[cat] = i
		}
		e.index[key] = pos
	}
	return e
}

// FitOneHotVocabulary 统计每列出现过的取值，按字典序排列。
func FitOneHotVocabulary(values map[string][]string) map[string][]string {
	vocab := make(map[string][]string, len(values))
	for key, vs := range values {
		seen := make(map[string]struct{}, len(vs))
		cats := make([]string, 0)
		for _, v := range vs {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			cats = append(cats, v)
		}
		sort.Strings(cats)
		vocab[key] = cats
	}
	return vocab
}

// Width 返回某列 one-hot 块的宽度
func (e *OneHotEncoder) Width(key string) int {
	return len(e.Categories[key])
}

// EncodeInto 将 value 写入 dst（长度必须等于 Width(key)），返回该类别是否在词表中。
// 未知类别保持 dst 全 0。
func (e *OneHotEncoder) EncodeInto(key, value string, dst []float64) bool {
	for i := range dst {
		dst[i] = 0
	}
	pos, ok := e.index[key][value]
	if !ok {
		return false
	}
	dst[pos] = 1
	return true
}

// Columns 指定参与编码的列及其顺序。
type Columns struct {
	Numeric     []string `json:"numeric" koanf:"numeric"`
	Categorical []string `json:"categorical" koanf:"categorical"`
}

// DefaultColumns 返回标准 schema 的全部数值列与类别列。
func DefaultColumns() Columns {
	schema := core.DefaultSchema()
	return Columns{
		Numeric:     append([]string(nil), schema.Numeric...),
		Categorical: append([]string(nil), schema.Categorical...),
	}
}

// EncoderState 是拟合后的编码器参数，可持久化。
// 输出列顺序：数值列按声明顺序，随后是各类别列的 one-hot 块（按声明顺序，块内按字典序）。
type EncoderState struct {
	NumericColumns     []string   `json:"numeric_columns"`
	Means              []float64  `json:"means"`
	Scales             []float64  `json:"scales"`
	CategoricalColumns []string   `json:"categorical_columns"`
	Vocabularies       [][]string `json:"vocabularies"`
}

// Dim 返回特征向量长度
func (s *EncoderState) Dim() int {
	d := len(s.NumericColumns)
	for _, v := range s.Vocabularies {
		d += len(v)
	}
	return d
}

// Columns 返回编码使用的列
func (s *EncoderState) Columns() Columns {
	return Columns{
		Numeric:     append([]string(nil), s.NumericColumns...),
		Categorical: append([]string(nil), s.CategoricalColumns...),
	}
}

// FeatureNames 返回每一维的名称：num__<col> / cat__<col>_<value>
func (s *EncoderState) FeatureNames() []string {
	names := make([]string, 0, s.Dim())
	for _, col := range s.NumericColumns {
		names = append(names, "num__"+col)
	}
	for i, col := range s.CategoricalColumns {
		for _, v := range s.Vocabularies[i] {
			names = append(names, fmt.Sprintf("cat__%s_%s", col, v))
		}
	}
	return names
}

func (s *EncoderState) normalizer() *ZScoreNormalizer {
	mean := make(map[string]float64, len(s.NumericColumns))
	std := make(map[string]float64, len(s.NumericColumns))
	for i, col := range s.NumericColumns {
		mean[col] = s.Means[i]
		std[col] = s.Scales[i]
	}
	return NewZScoreNormalizer(mean, std)
}

func (s *EncoderState) oneHot() *OneHotEncoder {
	cats := make(map[string][]string, len(s.CategoricalColumns))
	for i, col := range s.CategoricalColumns {
		cats[col] = s.Vocabularies[i]
	}
	return NewOneHotEncoder(cats)
}

func (s *EncoderState) validate() error {
	if len(s.Means) != len(s.NumericColumns) || len(s.Scales) != len(s.NumericColumns) {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"feature: numeric statistics do not match numeric columns")
	}
	if len(s.Vocabularies) != len(s.CategoricalColumns) {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			"feature: vocabularies do not match categorical columns")
	}
	return nil
}

// Fit 在目录上拟合编码器：数值列的均值/标准差，类别列的词表。
// 目录为空返回 EMPTY_CATALOG；列不属于 schema 返回 SCHEMA。
func Fit(catalog *core.Catalog, cols Columns) (*EncoderState, error) {
	if catalog.Len() == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeEmptyCatalog,
			"feature: cannot fit encoder on an empty catalog")
	}
	if err := checkColumns(cols); err != nil {
		return nil, err
	}

	products := catalog.Products()

	numeric := make(map[string][]float64, len(cols.Numeric))
	for _, col := range cols.Numeric {
		values := make([]float64, len(products))
		for i := range products {
			values[i], _ = products[i].Numeric(col)
		}
		numeric[col] = values
	}
	norm := FitZScoreNormalizer(numeric)

	categorical := make(map[string][]string, len(cols.Categorical))
	for _, col := range cols.Categorical {
		values := make([]string, len(products))
		for i := range products {
			values[i], _ = products[i].Categorical(col)
		}
		categorical[col] = values
	}
	vocab := FitOneHotVocabulary(categorical)

	state := &EncoderState{
		NumericColumns:     append([]string(nil), cols.Numeric...),
		Means:              make([]float64, len(cols.Numeric)),
		Scales:             make([]float64, len(cols.Numeric)),
		CategoricalColumns: append([]string(nil), cols.Categorical...),
		Vocabularies:       make([][]string, len(cols.Categorical)),
	}
	for i, col := range cols.Numeric {
		state.Means[i] = norm.Mean[col]
		state.Scales[i] = norm.Scale(col)
	}
	for i, col := range cols.Categorical {
		state.Vocabularies[i] = vocab[col]
	}
	return state, nil
}

// Transform 用已拟合的参数编码整个目录，每个商品一行。
// 拟合所用的目录同样复用拟合时的统计量。
func Transform(catalog *core.Catalog, state *EncoderState) (*vector.Matrix, error) {
	if err := state.validate(); err != nil {
		return nil, err
	}
	enc := newRowEncoder(state)
	m := vector.NewMatrix(catalog.Len(), state.Dim())
	for row := 0; row < catalog.Len(); row++ {
		p, _ := catalog.At(row)
		enc.encode(&p, m.Row(row))
	}
	return m, nil
}

// FitTransform = Fit + Transform
func FitTransform(catalog *core.Catalog, cols Columns) (*EncoderState, *vector.Matrix, error) {
	state, err := Fit(catalog, cols)
	if err != nil {
		return nil, nil, err
	}
	m, err := Transform(catalog, state)
	if err != nil {
		return nil, nil, err
	}
	return state, m, nil
}

// EncodeProduct 编码单个商品（可以是拟合时未出现的商品）。
func EncodeProduct(p *core.Product, state *EncoderState) ([]float64, error) {
	if err := state.validate(); err != nil {
		return nil, err
	}
	out := make([]float64, state.Dim())
	newRowEncoder(state).encode(p, out)
	return out, nil
}

type rowEncoder struct {
	state  *EncoderState
	norm   *ZScoreNormalizer
	oneHot *OneHotEncoder
}

func newRowEncoder(state *EncoderState) *rowEncoder {
	return &rowEncoder{
		state:  state,
		norm:   state.normalizer(),
		oneHot: state.oneHot(),
	}
}

func (e *rowEncoder) encode(p *core.Product, dst []float64) {
	offset := 0
	for _, col := range e.state.NumericColumns {
		v, _ := p.Numeric(col)
		dst[offset] = e.norm.NormalizeValueWithKey(col, v)
		offset++
	}
	for _, col := range e.state.CategoricalColumns {
		w := e.oneHot.Width(col)
		v, _ := p.Categorical(col)
		e.oneHot.EncodeInto(col, v, dst[offset:offset+w])
		offset += w
	}
}

func checkColumns(cols Columns) error {
	if len(cols.Numeric)+len(cols.Categorical) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
			"feature: no columns to encode")
	}
	schema := core.DefaultSchema()
	seen := make(map[string]bool)
	for _, col := range cols.Numeric {
		if !schema.IsNumeric(col) {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
				fmt.Sprintf("feature: %q is not a numeric column", col))
		}
		if seen[col] {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
				fmt.Sprintf("feature: column %q declared twice", col))
		}
		seen[col] = true
	}
	for _, col := range cols.Categorical {
		if !schema.IsCategorical(col) {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
				fmt.Sprintf("feature: %q is not a categorical column", col))
		}
		if seen[col] {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeSchema,
				fmt.Sprintf("feature: column %q declared twice", col))
		}
		seen[col] = true
	}
	return nil
}
