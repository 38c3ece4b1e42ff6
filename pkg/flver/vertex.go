package flver

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// UV divisors for short- and float-packed texture coordinates.
const (
	uvScaleLegacy = 1024
	uvScale       = 2048
)

// Vertex holds the attributes decoded for one vertex. A layout may declare a
// semantic more than once, so most slots are lists. Slots the layout does not
// populate stay nil, which keeps "no data" distinct from zero.
type Vertex struct {
	Position    *mgl32.Vec3
	Normals     []mgl32.Vec4
	Tangents    []mgl32.Vec4
	UVs         []mgl32.Vec3
	BoneWeights *mgl32.Vec4
	BoneIndices *[4]uint16
	Colors      []mgl32.Vec4
}

// TangentMode selects the arithmetic used for byte-packed tangents.
type TangentMode uint8

const (
	// TangentSource computes raw - 127.0/127.0, which is raw - 1.
	TangentSource TangentMode = iota
	// TangentNormalized computes (raw - 127) / 127 like normals do.
	TangentNormalized
)

// String returns "source" or "normalized".
func (m TangentMode) String() string {
	switch m {
	case TangentSource:
		return "source"
	case TangentNormalized:
		return "normalized"
	default:
		return fmt.Sprintf("TangentMode(%d)", uint8(m))
	}
}

// ParseTangentMode parses "source" or "normalized". The empty string selects
// TangentSource.
func ParseTangentMode(s string) (TangentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "source":
		return TangentSource, nil
	case "normalized":
		return TangentNormalized, nil
	default:
		return 0, fmt.Errorf("unknown tangent mode %q", s)
	}
}

// UVScale returns the divisor applied to UV lanes for a container version.
func UVScale(v Version) float32 {
	if v < VersionUVScale2048 {
		return uvScaleLegacy
	}
	return uvScale
}

// VertexDecoder turns raw vertex bytes into Vertex values using a buffer
// layout.
type VertexDecoder struct {
	uvScale  float32
	tangents TangentMode
}

// NewVertexDecoder returns a decoder for vertices of the given container version.
func NewVertexDecoder(version Version, tangents TangentMode) *VertexDecoder {
	return &VertexDecoder{
		uvScale:  UVScale(version),
		tangents: tangents,
	}
}

// DecodeBuffer decodes every vertex of vb. The buffer must have its layout
// bound. Vertex data starts at dataOffset + vb.BufferOffset.
func (vd *VertexDecoder) DecodeBuffer(r *binreader.Reader, vb *VertexBuffer, dataOffset int64) ([]Vertex, error) {
	if vb.Layout == nil {
		return nil, fmt.Errorf("%w: layout index %d", ErrUnresolved, vb.LayoutIndex)
	}

	start := dataOffset + int64(vb.BufferOffset)
	if end := start + int64(vb.Stride)*int64(vb.VertexCount); vb.BufferOffset < 0 || end > r.Size() {
		return nil, fmt.Errorf("%w: %d vertices of %d bytes at 0x%X exceed source size %d",
			ErrInvalidCount, vb.VertexCount, vb.Stride, start, r.Size())
	}

	if err := r.Push(start); err != nil {
		return nil, err
	}

	vertices := make([]Vertex, 0, min(int(vb.VertexCount), 1<<16))
	for i := 0; i < int(vb.VertexCount); i++ {
		v, err := vd.DecodeVertex(r, vb.Layout, int(vb.Stride))
		if err != nil {
			_ = r.Pop()
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices = append(vertices, v)
	}

	if err := r.Pop(); err != nil {
		return nil, err
	}
	return vertices, nil
}

// DecodeVertex decodes one vertex at the cursor and leaves the cursor exactly
// stride bytes further on.
//
// Members are consumed in order. A member that would run past the stride
// ends the walk and it and every later member stay unpopulated. Bytes the
// members do not cover are skipped as padding.
func (vd *VertexDecoder) DecodeVertex(r *binreader.Reader, layout *BufferLayout, stride int) (Vertex, error) {
	var v Vertex
	consumed := 0
	for i, m := range layout.Members {
		size, err := m.Size()
		if err != nil {
			return Vertex{}, fmt.Errorf("member %d: %w", i, err)
		}
		if consumed+size > stride {
			break
		}

		start := r.Position()
		if err := vd.decodeMember(r, &v, m); err != nil {
			return Vertex{}, fmt.Errorf("member %d: %w", i, err)
		}
		// Rules that read less than the member size leave the rest as padding.
		if read := int(r.Position() - start); read < size {
			if err := r.Skip(int64(size - read)); err != nil {
				return Vertex{}, fmt.Errorf("member %d: %w", i, err)
			}
		}
		consumed += size
	}

	if pad := stride - consumed; pad > 0 {
		if err := r.Skip(int64(pad)); err != nil {
			return Vertex{}, fmt.Errorf("skipping %d padding bytes: %w", pad, err)
		}
	}
	return v, nil
}

func (vd *VertexDecoder) decodeMember(r *binreader.Reader, v *Vertex, m BufferLayoutMember) error {
	switch m.Semantic {
	case SemanticPosition:
		if m.Type != TypeFloat3 {
			return unsupportedMember(m)
		}
		p, err := r.ReadVector3()
		if err != nil {
			return err
		}
		v.Position = &p

	case SemanticBoneWeights:
		var w mgl32.Vec4
		switch m.Type {
		case TypeByte4C:
			raw, err := read4(r, (*binreader.Reader).ReadInt8)
			if err != nil {
				return err
			}
			for i, x := range raw {
				w[i] = float32(x) / 127
			}
		case TypeShort4ToFloat4A:
			raw, err := read4(r, (*binreader.Reader).ReadInt16)
			if err != nil {
				return err
			}
			for i, x := range raw {
				w[i] = float32(x) / 32767
			}
		default:
			return unsupportedMember(m)
		}
		v.BoneWeights = &w

	case SemanticBoneIndices:
		var idx [4]uint16
		switch m.Type {
		case TypeByte4B, TypeByte4E:
			raw, err := read4(r, (*binreader.Reader).ReadUint8)
			if err != nil {
				return err
			}
			for i, x := range raw {
				idx[i] = uint16(x)
			}
		case TypeShort4ToFloat4A:
			raw, err := read4(r, (*binreader.Reader).ReadUint16)
			if err != nil {
				return err
			}
			idx = raw
		default:
			return unsupportedMember(m)
		}
		v.BoneIndices = &idx

	case SemanticNormal:
		var n mgl32.Vec4
		switch m.Type {
		case TypeByte4A, TypeByte4B, TypeByte4C:
			raw, err := read4(r, (*binreader.Reader).ReadUint8)
			if err != nil {
				return err
			}
			for i, x := range raw {
				n[i] = (float32(x) - 127) / 127
			}
		case TypeShort4ToFloat4B:
			raw, err := read4(r, (*binreader.Reader).ReadUint16)
			if err != nil {
				return err
			}
			for i, x := range raw {
				n[i] = (float32(x) - 32767) / 32767
			}
		case TypeFloat4:
			raw, err := read4(r, (*binreader.Reader).ReadFloat32)
			if err != nil {
				return err
			}
			n = raw
		default:
			return unsupportedMember(m)
		}
		v.Normals = append(v.Normals, n)

	case SemanticUV:
		uv, err := vd.decodeUV(r, m.Type)
		if err != nil {
			return err
		}
		v.UVs = append(v.UVs, uv)

	case SemanticTangent:
		if m.Type != TypeByte4C {
			return unsupportedMember(m)
		}
		raw, err := read4(r, (*binreader.Reader).ReadInt8)
		if err != nil {
			return err
		}
		var t mgl32.Vec4
		for i, x := range raw {
			if vd.tangents == TangentNormalized {
				t[i] = (float32(x) - 127) / 127
			} else {
				t[i] = float32(x) - 127.0/127.0
			}
		}
		v.Tangents = append(v.Tangents, t)

	case SemanticUnknownVector4:
		if m.Type != TypeByte4B && m.Type != TypeByte4C {
			return unsupportedMember(m)
		}
		return r.Skip(4)

	case SemanticVertexColor:
		var c mgl32.Vec4
		switch m.Type {
		case TypeByte4A, TypeByte4C:
			raw, err := read4(r, (*binreader.Reader).ReadUint8)
			if err != nil {
				return err
			}
			for i, x := range raw {
				c[i] = colorLane(float32(x))
			}
		case TypeFloat4:
			raw, err := read4(r, (*binreader.Reader).ReadFloat32)
			if err != nil {
				return err
			}
			for i, x := range raw {
				c[i] = colorLane(x)
			}
		default:
			return unsupportedMember(m)
		}
		v.Colors = append(v.Colors, c)

	default:
		return unsupportedMember(m)
	}
	return nil
}

func (vd *VertexDecoder) decodeUV(r *binreader.Reader, t LayoutType) (mgl32.Vec3, error) {
	var uv mgl32.Vec3
	switch t {
	case TypeFloat2:
		for i := 0; i < 2; i++ {
			x, err := r.ReadFloat32()
			if err != nil {
				return uv, err
			}
			uv[i] = x / vd.uvScale
		}
	case TypeFloat3:
		raw, err := r.ReadVector3()
		if err != nil {
			return uv, err
		}
		uv = raw.Mul(1 / vd.uvScale)
	case TypeByte4A, TypeByte4B, TypeShort2ToFloat2, TypeByte4C, TypeUV:
		if err := vd.readShortUV(r, uv[:2]); err != nil {
			return uv, err
		}
	case TypeUVPair:
		if err := vd.readShortUV(r, uv[:]); err != nil {
			return uv, err
		}
	case TypeShort4ToFloat4B:
		if err := vd.readShortUV(r, uv[:]); err != nil {
			return uv, err
		}
		if _, err := r.AssertInt16("uv.w", 0); err != nil {
			return uv, err
		}
	default:
		return uv, &VertexDecodeError{Semantic: SemanticUV, Type: t}
	}
	return uv, nil
}

// readShortUV fills lanes with signed shorts divided by the UV scale.
func (vd *VertexDecoder) readShortUV(r *binreader.Reader, lanes []float32) error {
	for i := range lanes {
		x, err := r.ReadInt16()
		if err != nil {
			return err
		}
		lanes[i] = float32(x) / vd.uvScale
	}
	return nil
}

func unsupportedMember(m BufferLayoutMember) error {
	return &VertexDecodeError{Semantic: m.Semantic, Type: m.Type}
}

// colorLane scales byte-range values to [0,1]. Values of 1 or less are taken
// as already normalized.
func colorLane(x float32) float32 {
	if x > 1 {
		return x / 255
	}
	return x
}

func read4[T any](r *binreader.Reader, read func(*binreader.Reader) (T, error)) ([4]T, error) {
	var out [4]T
	for i := range out {
		v, err := read(r)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
