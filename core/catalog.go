package core

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Catalog 是不可变的商品目录，插入顺序即行号，贯穿整个 Pipeline。
//
// 商品名在源数据中不保证唯一：IndexOf 只返回第一条匹配的行，
// 重名商品在查询时会折叠为同一条记录。
type Catalog struct {
	products []Product
	first    map[string]int // name -> 第一条匹配的行号
}

// NewCatalog 按给定顺序构建目录（会复制输入切片）。
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		first:    make(map[string]int, len(products)),
	}
	copy(c.products, products)
	for i, p := range c.products {
		if _, ok := c.first[p.Name]; !ok {
			c.first[p.Name] = i
		}
	}
	return c
}

// Len 返回商品数量
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// At 返回指定行的商品（值拷贝）。
func (c *Catalog) At(row int) (Product, bool) {
	if c == nil || row < 0 || row >= len(c.products) {
		return Product{}, false
	}
	return c.products[row], true
}

// IndexOf 返回第一条名称完全匹配的行号。
func (c *Catalog) IndexOf(name string) (int, bool) {
	if c == nil {
		return -1, false
	}
	row, ok := c.first[name]
	if !ok {
		return -1, false
	}
	return row, true
}

// Names 按行序返回全部商品名（含重名）。
func (c *Catalog) Names() []string {
	names := make([]string, c.Len())
	for i := range names {
		names[i] = c.products[i].Name
	}
	return names
}

// Products 返回全部商品的拷贝。
func (c *Catalog) Products() []Product {
	out := make([]Product, c.Len())
	copy(out, c.products)
	return out
}

// Select 返回满足 pred 的行号（保持行序）。pred 为 nil 时返回全部行。
func (c *Catalog) Select(pred func(row int, p *Product) bool) []int {
	rows := make([]int, 0, c.Len())
	for i := range c.products {
		if pred == nil || pred(i, &c.products[i]) {
			rows = append(rows, i)
		}
	}
	return rows
}

// PriceRange 返回价格的最小值与最大值，空目录返回 (0, 0)。
func (c *Catalog) PriceRange() (min, max float64) {
	if c.Len() == 0 {
		return 0, 0
	}
	min, max = math.Inf(1), math.Inf(-1)
	for i := range c.products {
		p := c.products[i].PriceUSD
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}

// Distinct 返回某个类别列的去重取值（升序），用于过滤组件的候选项。
func (c *Catalog) Distinct(col string) []string {
	seen := make(map[string]struct{})
	for i := range c.products {
		v, ok := c.products[i].Categorical(col)
		if !ok {
			return nil
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Fingerprint 计算目录内容的指纹（xxhash64），任意行或列的变化都会改变指纹。
// 用于判断已持久化的产物是否仍然对应当前目录。
func (c *Catalog) Fingerprint() string {
	h := xxhash.New()
	buf := make([]byte, 0, 8)
	writeString := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0x1f})
	}
	writeFloat := func(f float64) {
		buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(f))
		_, _ = h.Write(buf)
	}
	schema := DefaultSchema()
	for i := range c.products {
		p := &c.products[i]
		writeString(p.Name)
		for _, col := range schema.Numeric {
			v, _ := p.Numeric(col)
			writeFloat(v)
		}
		for _, col := range schema.Categorical {
			v, _ := p.Categorical(col)
			writeString(v)
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
