package feature

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// 导出文件名
const (
	MetadataFileName = "feature_meta.json"
	ScalerFileName   = "feature_scaler.json"
)

// FeatureMetadata 描述一次拟合得到的特征空间，对应 feature_meta.json，
// 便于离线检查或在其他系统中复现同样的编码。
type FeatureMetadata struct {
	// FeatureColumns 每一维的名称（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// Columns 编码使用的源列
	Columns Columns `json:"columns"`
	// Vocabularies 类别列 -> 拟合时的词表（字典序）
	Vocabularies map[string][]string `json:"vocabularies"`
	// Generation 产物代号
	Generation string `json:"generation"`
	// Normalized 数值列是否经过 z-score
	Normalized bool `json:"normalized"`
	// CreatedAt 创建时间
	CreatedAt string `json:"created_at"`
}

// FeatureScaler 数值列 -> 标准化参数，对应 feature_scaler.json
type FeatureScaler map[string]ScalerParams

// ScalerParams 标准化参数。Std 是实际使用的缩放值（原始标准差为 0 时为 1）。
type ScalerParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Metadata 由编码器参数生成元数据
func (s *EncoderState) Metadata(generation string, createdAt time.Time) *FeatureMetadata {
	vocab := make(map[string][]string, len(s.CategoricalColumns))
	for i, col := range s.CategoricalColumns {
		vocab[col] = append([]string(nil), s.Vocabularies[i]...)
	}
	return &FeatureMetadata{
		FeatureColumns: s.FeatureNames(),
		FeatureCount:   s.Dim(),
		Columns:        s.Columns(),
		Vocabularies:   vocab,
		Generation:     generation,
		Normalized:     len(s.NumericColumns) > 0,
		CreatedAt:      createdAt.UTC().Format(time.RFC3339),
	}
}

// Scaler 返回数值列的标准化参数
func (s *EncoderState) Scaler() FeatureScaler {
	out := make(FeatureScaler, len(s.NumericColumns))
	for i, col := range s.NumericColumns {
		out[col] = ScalerParams{Mean: s.Means[i], Std: s.Scales[i]}
	}
	return out
}

// NormalizeValue 使用标准化器对单个值做 z-score，未知列原样返回。
func (sc FeatureScaler) NormalizeValue(col string, value float64) float64 {
	p, ok := sc[col]
	if !ok {
		return value
	}
	std := p.Std
	if std == 0 {
		std = 1
	}
	return (value - p.Mean) / std
}

// ExportMetadata 将 feature_meta.json 与 feature_scaler.json 写入 dir。
func ExportMetadata(dir string, meta *FeatureMetadata, scaler FeatureScaler) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, MetadataFileName), meta); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ScalerFileName), scaler)
}

// LoadFeatureMetadata 从文件加载特征元数据
func LoadFeatureMetadata(path string) (*FeatureMetadata, error) {
	var meta FeatureMetadata
	if err := readJSON(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFeatureScaler 从文件加载特征标准化器
func LoadFeatureScaler(path string) (FeatureScaler, error) {
	var scaler FeatureScaler
	if err := readJSON(path, &scaler); err != nil {
		return nil, err
	}
	return scaler, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
