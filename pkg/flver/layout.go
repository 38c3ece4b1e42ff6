package flver

import (
	"fmt"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// LayoutType is the wire representation of a vertex attribute.
type LayoutType uint32

const (
	TypeFloat2          LayoutType = 0x01
	TypeFloat3          LayoutType = 0x02
	TypeFloat4          LayoutType = 0x03
	TypeByte4A          LayoutType = 0x10
	TypeByte4B          LayoutType = 0x11
	TypeShort2ToFloat2  LayoutType = 0x12
	TypeByte4C          LayoutType = 0x13
	TypeUV              LayoutType = 0x15
	TypeUVPair          LayoutType = 0x16
	TypeShort4ToFloat4A LayoutType = 0x1A
	TypeShort4ToFloat4B LayoutType = 0x2E
	TypeByte4E          LayoutType = 0x2F
)

var layoutTypeNames = map[LayoutType]string{
	TypeFloat2:          "Float2",
	TypeFloat3:          "Float3",
	TypeFloat4:          "Float4",
	TypeByte4A:          "Byte4A",
	TypeByte4B:          "Byte4B",
	TypeShort2ToFloat2:  "Short2ToFloat2",
	TypeByte4C:          "Byte4C",
	TypeUV:              "UV",
	TypeUVPair:          "UVPair",
	TypeShort4ToFloat4A: "Short4ToFloat4A",
	TypeShort4ToFloat4B: "Short4ToFloat4B",
	TypeByte4E:          "Byte4E",
}

// String returns the type name.
func (t LayoutType) String() string {
	if name, ok := layoutTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%X)", uint32(t))
}

// Size returns the number of bytes one attribute of this type occupies.
func (t LayoutType) Size() (int, error) {
	switch t {
	case TypeByte4A, TypeByte4B, TypeShort2ToFloat2, TypeByte4C, TypeUV, TypeByte4E:
		return 4, nil
	case TypeFloat2, TypeUVPair, TypeShort4ToFloat4A, TypeShort4ToFloat4B:
		return 8, nil
	case TypeFloat3:
		return 12, nil
	case TypeFloat4:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: 0x%X", ErrUnknownType, uint32(t))
	}
}

// LayoutSemantic is the meaning of a vertex attribute.
type LayoutSemantic uint32

const (
	SemanticPosition       LayoutSemantic = 0
	SemanticBoneWeights    LayoutSemantic = 1
	SemanticBoneIndices    LayoutSemantic = 2
	SemanticNormal         LayoutSemantic = 3
	SemanticUV             LayoutSemantic = 5
	SemanticTangent        LayoutSemantic = 6
	SemanticUnknownVector4 LayoutSemantic = 7
	SemanticVertexColor    LayoutSemantic = 10
)

// String returns the semantic name.
func (s LayoutSemantic) String() string {
	switch s {
	case SemanticPosition:
		return "Position"
	case SemanticBoneWeights:
		return "BoneWeights"
	case SemanticBoneIndices:
		return "BoneIndices"
	case SemanticNormal:
		return "Normal"
	case SemanticUV:
		return "UV"
	case SemanticTangent:
		return "Tangent"
	case SemanticUnknownVector4:
		return "UnknownVector4"
	case SemanticVertexColor:
		return "VertexColor"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(s))
	}
}

// BufferLayoutMember describes one attribute within a vertex.
type BufferLayoutMember struct {
	StructOffset int32
	Type         LayoutType
	Semantic     LayoutSemantic
	Index        int32 // channel index among members sharing a semantic
}

// Size returns the member's byte size.
func (m BufferLayoutMember) Size() (int, error) {
	return m.Type.Size()
}

// BufferLayout is the ordered list of attributes in a vertex.
type BufferLayout struct {
	Members []BufferLayoutMember
}

// Size returns the sum of member sizes.
func (l *BufferLayout) Size() (int, error) {
	total := 0
	for i, m := range l.Members {
		size, err := m.Size()
		if err != nil {
			return 0, fmt.Errorf("member %d: %w", i, err)
		}
		total += size
	}
	return total, nil
}

func readBufferLayout(r *binreader.Reader, l *BufferLayout) error {
	f := &fields{r: r}
	count := f.i32()
	f.assertI32("layout.unk04", 0)
	f.assertI32("layout.unk08", 0)
	offset := f.i32()
	if f.err != nil {
		return f.err
	}

	members, err := binreader.ReadArrayAt(r, int64(offset), int(count), readBufferLayoutMember)
	if err != nil {
		return fmt.Errorf("reading members: %w", err)
	}
	l.Members = members
	return nil
}

func readBufferLayoutMember(r *binreader.Reader) (BufferLayoutMember, error) {
	f := &fields{r: r}
	m := BufferLayoutMember{
		StructOffset: f.i32(),
		Type:         LayoutType(f.u32()),
		Semantic:     LayoutSemantic(f.u32()),
		Index:        f.i32(),
	}
	return m, f.err
}
