// Package catalog 负责从 CSV 加载商品目录，并提供目录级的过滤与筛选项。
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/prodrec/core"
)

// NaN / Inf 会污染整列的均值与标准差，进而使所有相似度变为 NaN
var errNotFinite = errors.New("not a finite number")

// LoadCSV 从文件加载商品目录。
func LoadCSV(path string) (*core.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
			fmt.Sprintf("catalog: open %s", path), err)
	}
	defer f.Close()
	return Read(f)
}

// Read 读取带表头的 CSV。
//
// 表头必须包含 schema 的全部列，缺列返回 SCHEMA 错误；
// schema 之外的列（如 Product_Size）直接丢弃。
// 数值列无法解析时返回 INVALID_INPUT，错误信息带行号。
func Read(r io.Reader) (*core.Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeSchema, "catalog: missing header")
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: read header", err)
	}

	positions, err := columnPositions(header)
	if err != nil {
		return nil, err
	}

	schema := core.DefaultSchema()
	var products []core.Product
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: read record", err)
		}
		line, _ := reader.FieldPos(0)

		p := core.Product{Name: strings.TrimSpace(record[positions[schema.Identifier]])}
		for _, col := range schema.Numeric {
			raw := strings.TrimSpace(record[positions[col]])
			v, err := strconv.ParseFloat(raw, 64)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = errNotFinite
			}
			if err != nil {
				return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
					fmt.Sprintf("catalog: line %d: column %s: invalid number %q", line, col, raw), err)
			}
			setNumeric(&p, col, v)
		}
		for _, col := range schema.Categorical {
			setCategorical(&p, col, strings.TrimSpace(record[positions[col]]))
		}
		products = append(products, p)
	}
	return core.NewCatalog(products), nil
}

func columnPositions(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}
	var missing []string
	for _, col := range core.DefaultSchema().Columns() {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeSchema,
			fmt.Sprintf("catalog: missing required columns: %s", strings.Join(missing, ", ")))
	}
	return positions, nil
}

func setNumeric(p *core.Product, col string, v float64) {
	switch col {
	case core.ColumnPriceUSD:
		p.PriceUSD = v
	case core.ColumnRating:
		p.Rating = v
	case core.ColumnNumberOfReviews:
		p.NumberOfReviews = v
	}
}

func setCategorical(p *core.Product, col, v string) {
	switch col {
	case core.ColumnBrand:
		p.Brand = v
	case core.ColumnCategory:
		p.Category = v
	case core.ColumnUsageFrequency:
		p.UsageFrequency = v
	case core.ColumnSkinType:
		p.SkinType = v
	case core.ColumnGenderTarget:
		p.GenderTarget = v
	case core.ColumnPackagingType:
		p.PackagingType = v
	case core.ColumnMainIngredient:
		p.MainIngredient = v
	case core.ColumnCrueltyFree:
		p.CrueltyFree = v
	case core.ColumnCountryOfOrigin:
		p.CountryOfOrigin = v
	}
}
