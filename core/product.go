package core

import (
	"strconv"
	"strings"
)

// 源数据列名。
const (
	ColumnName            = "Product_Name"
	ColumnPriceUSD        = "Price_USD"
	ColumnRating          = "Rating"
	ColumnNumberOfReviews = "Number_of_Reviews"
	ColumnBrand           = "Brand"
	ColumnCategory        = "Category"
	ColumnUsageFrequency  = "Usage_Frequency"
	ColumnSkinType        = "Skin_Type"
	ColumnGenderTarget    = "Gender_Target"
	ColumnPackagingType   = "Packaging_Type"
	ColumnMainIngredient  = "Main_Ingredient"
	ColumnCrueltyFree     = "Cruelty_Free"
	ColumnCountryOfOrigin = "Country_of_Origin"

	// ColumnProductSize 是已知的多余列，编码前丢弃。
	ColumnProductSize = "Product_Size"
)

// Schema 描述商品目录的固定列结构。
type Schema struct {
	Identifier  string
	Numeric     []string
	Categorical []string
}

// DefaultSchema 返回商品目录的标准列结构。
// 列顺序即特征向量的拼接顺序。
func DefaultSchema() Schema {
	return Schema{
		Identifier: ColumnName,
		Numeric: []string{
			ColumnPriceUSD,
			ColumnRating,
			ColumnNumberOfReviews,
		},
		Categorical: []string{
			ColumnBrand,
			ColumnCategory,
			ColumnUsageFrequency,
			ColumnSkinType,
			ColumnGenderTarget,
			ColumnPackagingType,
			ColumnMainIngredient,
			ColumnCrueltyFree,
			ColumnCountryOfOrigin,
		},
	}
}

// Columns 返回全部必需列（标识列在前）。
func (s Schema) Columns() []string {
	cols := make([]string, 0, 1+len(s.Numeric)+len(s.Categorical))
	cols = append(cols, s.Identifier)
	cols = append(cols, s.Numeric...)
	cols = append(cols, s.Categorical...)
	return cols
}

// IsNumeric 判断列是否为数值列
func (s Schema) IsNumeric(col string) bool {
	for _, c := range s.Numeric {
		if c == col {
			return true
		}
	}
	return false
}

// IsCategorical 判断列是否为类别列
func (s Schema) IsCategorical(col string) bool {
	for _, c := range s.Categorical {
		if c == col {
			return true
		}
	}
	return false
}

// Product 是一条商品记录，加载后不可变，由 Catalog 独占持有。
// 类别属性保留源数据中的原始字符串。
type Product struct {
	Name string

	PriceUSD        float64
	Rating          float64
	NumberOfReviews float64

	Brand           string
	Category        string
	UsageFrequency  string
	SkinType        string
	GenderTarget    string
	PackagingType   string
	MainIngredient  string
	CrueltyFree     string
	CountryOfOrigin string
}

// Numeric 按列名读取数值属性。
func (p *Product) Numeric(col string) (float64, bool) {
	switch col {
	case ColumnPriceUSD:
		return p.PriceUSD, true
	case ColumnRating:
		return p.Rating, true
	case ColumnNumberOfReviews:
		return p.NumberOfReviews, true
	default:
		return 0, false
	}
}

// Categorical 按列名读取类别属性。
func (p *Product) Categorical(col string) (string, bool) {
	switch col {
	case ColumnBrand:
		return p.Brand, true
	case ColumnCategory:
		return p.Category, true
	case ColumnUsageFrequency:
		return p.UsageFrequency, true
	case ColumnSkinType:
		return p.SkinType, true
	case ColumnGenderTarget:
		return p.GenderTarget, true
	case ColumnPackagingType:
		return p.PackagingType, true
	case ColumnMainIngredient:
		return p.MainIngredient, true
	case ColumnCrueltyFree:
		return p.CrueltyFree, true
	case ColumnCountryOfOrigin:
		return p.CountryOfOrigin, true
	default:
		return "", false
	}
}

// IsCrueltyFree 解析 Cruelty_Free 列，无法解析时 ok 为 false。
func (p *Product) IsCrueltyFree() (value bool, ok bool) {
	v, err := strconv.ParseBool(strings.TrimSpace(p.CrueltyFree))
	if err != nil {
		return false, false
	}
	return v, true
}

// Attributes 返回 snake_case key 的属性字典，供外部过滤（CEL 表达式、HTTP 查询）使用。
// cruelty_free 可以解析为布尔值时以 bool 暴露，否则保留原始字符串。
func (p *Product) Attributes() map[string]any {
	attrs := map[string]any{
		"name":              p.Name,
		"price_usd":         p.PriceUSD,
		"rating":            p.Rating,
		"number_of_reviews": p.NumberOfReviews,
		"brand":             p.Brand,
		"category":          p.Category,
		"usage_frequency":   p.UsageFrequency,
		"skin_type":         p.SkinType,
		"gender_target":     p.GenderTarget,
		"packaging_type":    p.PackagingType,
		"main_ingredient":   p.MainIngredient,
		"country_of_origin": p.CountryOfOrigin,
	}
	if v, ok := p.IsCrueltyFree(); ok {
		attrs["cruelty_free"] = v
	} else {
		attrs["cruelty_free"] = p.CrueltyFree
	}
	return attrs
}

// AttributeKey 将源列名转换为 Attributes 使用的 key（如 "Price_USD" -> "price_usd"）。
func AttributeKey(col string) string {
	if col == ColumnName {
		return "name"
	}
	return strings.ToLower(col)
}
