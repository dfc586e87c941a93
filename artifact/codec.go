package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/feature"
	"github.com/rushteam/prodrec/reduce"
	"github.com/rushteam/prodrec/vector"
)

// 持久化格式：
//
//	magic "PRDA" | uint16 版本（小端）| uint8 编码（0 原始 / 1 zstd）| JSON 主体
//
// 矩阵在 JSON 中以小端 float64 二进制（base64）嵌入，保证按位还原。
var magic = [4]byte{'P', 'R', 'D', 'A'}

const (
	headerSize = 7

	codecRaw  byte = 0
	codecZstd byte = 1
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

type artifactDTO struct {
	Generation         string                `json:"generation"`
	CreatedAt          time.Time             `json:"created_at"`
	Options            Options               `json:"options"`
	Encoder            *feature.EncoderState `json:"encoder"`
	Reducer            *reducerDTO           `json:"reducer,omitempty"`
	Similarity         []byte                `json:"similarity,omitempty"`
	Vectors            []byte                `json:"vectors,omitempty"`
	Names              []string              `json:"names"`
	CatalogFingerprint string                `json:"catalog_fingerprint"`
}

type reducerDTO struct {
	Rank                   int       `json:"rank"`
	InputDim               int       `json:"input_dim"`
	Components             []byte    `json:"components"`
	SingularValues         []float64 `json:"singular_values"`
	ExplainedVarianceRatio []float64 `json:"explained_variance_ratio"`
}

// Encode 序列化产物。
func Encode(a *Artifact, compress bool) ([]byte, error) {
	dto := artifactDTO{
		Generation:         a.Generation,
		CreatedAt:          a.CreatedAt,
		Options:            a.Options,
		Encoder:            a.Encoder,
		Names:              a.Names,
		CatalogFingerprint: a.CatalogFingerprint,
	}
	var err error
	if a.Reducer != nil {
		r := &reducerDTO{
			Rank:                   a.Reducer.Rank,
			InputDim:               a.Reducer.InputDim,
			SingularValues:         a.Reducer.SingularValues,
			ExplainedVarianceRatio: a.Reducer.ExplainedVarianceRatio,
		}
		if r.Components, err = a.Reducer.Components.MarshalBinary(); err != nil {
			return nil, persistErr("encode reducer components", err)
		}
		dto.Reducer = r
	}
	if a.Similarity != nil {
		if dto.Similarity, err = a.Similarity.MarshalBinary(); err != nil {
			return nil, persistErr("encode similarity matrix", err)
		}
	}
	if a.Vectors != nil {
		if dto.Vectors, err = a.Vectors.MarshalBinary(); err != nil {
			return nil, persistErr("encode vectors", err)
		}
	}

	body, err := json.Marshal(&dto)
	if err != nil {
		return nil, persistErr("marshal artifact", err)
	}

	flag := codecRaw
	if compress {
		flag = codecZstd
		body = zstdEncoder.EncodeAll(body, make([]byte, 0, len(body)/4))
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(body)))
	buf.Write(magic[:])
	_ = binary.Write(buf, binary.LittleEndian, FormatVersion)
	buf.WriteByte(flag)
	buf.Write(body)
	return buf.Bytes(), nil
}

// Decode 反序列化产物。魔数、版本或内容不合法时返回 PERSISTENCE。
func Decode(data []byte) (*Artifact, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, persistErr("decode", fmt.Errorf("not an artifact"))
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != FormatVersion {
		return nil, persistErr("decode", fmt.Errorf("format version %d, want %d", version, FormatVersion))
	}

	body := data[headerSize:]
	switch data[6] {
	case codecRaw:
	case codecZstd:
		var err error
		if body, err = zstdDecoder.DecodeAll(body, nil); err != nil {
			return nil, persistErr("decompress", err)
		}
	default:
		return nil, persistErr("decode", fmt.Errorf("unknown codec %d", data[6]))
	}

	var dto artifactDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, persistErr("unmarshal artifact", err)
	}
	a := &Artifact{
		FormatVersion:      version,
		Generation:         dto.Generation,
		CreatedAt:          dto.CreatedAt,
		Options:            dto.Options,
		Encoder:            dto.Encoder,
		Names:              dto.Names,
		CatalogFingerprint: dto.CatalogFingerprint,
	}
	if dto.Reducer != nil {
		var comps vector.Matrix
		if err := comps.UnmarshalBinary(dto.Reducer.Components); err != nil {
			return nil, persistErr("decode reducer components", err)
		}
		a.Reducer = &reduce.State{
			Rank:                   dto.Reducer.Rank,
			InputDim:               dto.Reducer.InputDim,
			Components:             &comps,
			SingularValues:         dto.Reducer.SingularValues,
			ExplainedVarianceRatio: dto.Reducer.ExplainedVarianceRatio,
		}
	}
	if dto.Similarity != nil {
		a.Similarity = &vector.Matrix{}
		if err := a.Similarity.UnmarshalBinary(dto.Similarity); err != nil {
			return nil, persistErr("decode similarity matrix", err)
		}
	}
	if dto.Vectors != nil {
		a.Vectors = &vector.Matrix{}
		if err := a.Vectors.UnmarshalBinary(dto.Vectors); err != nil {
			return nil, persistErr("decode vectors", err)
		}
	}
	if err := checkIntegrity(a); err != nil {
		return nil, err
	}
	return a, nil
}

func persistErr(op string, err error) error {
	return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodePersistence, "artifact: "+op, err)
}
