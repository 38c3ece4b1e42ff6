package flver

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// Restart markers separate strips in a triangle strip index list.
const (
	stripRestart16 = 0xFFFF
	stripRestart32 = 0xFFFFFFFF
)

// Mesh is a drawable piece of the model.
//
// The index slices are what the file stores. FaceSets and VertexBuffers are
// filled in once all pools have been read and point into Model's pools, so
// meshes may share entries.
type Mesh struct {
	Dynamic          bool
	MaterialIndex    int32
	DefaultBoneIndex int32
	BoneIndices      []int32
	Unk1             int32

	BoundingBox    *BoundingBox // nil before VersionMeshBoundingBox
	BoundingBoxUnk *mgl32.Vec3  // nil before VersionMeshBoundingBoxUnk

	FaceSetIndices      []int32
	VertexBufferIndices []int32

	FaceSets      []*FaceSet
	VertexBuffers []*VertexBuffer
}

// FaceSet is a list of vertex indices forming triangles.
type FaceSet struct {
	Flags           uint32
	TriangleStrip   bool
	CullBackfaces   bool
	Unk06           uint8
	Unk07           uint8
	IndexSize       int32 // declared bit width: 0, 16 or 32
	IndexBufferSize int32
	Indices         []uint32
}

// IndexBits returns the effective index width. Only an explicit 32 selects
// 32-bit indices.
func (fs *FaceSet) IndexBits() int {
	if fs.IndexSize == 32 {
		return 32
	}
	return 16
}

// Triangles returns the face set as a triangle list. Strips are unrolled
// with alternating winding, restart markers split strips and degenerate
// triangles are dropped.
func (fs *FaceSet) Triangles() [][3]uint32 {
	if !fs.TriangleStrip {
		tris := make([][3]uint32, 0, len(fs.Indices)/3)
		for i := 0; i+2 < len(fs.Indices); i += 3 {
			tris = append(tris, [3]uint32{fs.Indices[i], fs.Indices[i+1], fs.Indices[i+2]})
		}
		return tris
	}

	restart := uint32(stripRestart16)
	if fs.IndexBits() == 32 {
		restart = stripRestart32
	}

	var tris [][3]uint32
	flip := false
	for i := 0; i+2 < len(fs.Indices); i++ {
		a, b, c := fs.Indices[i], fs.Indices[i+1], fs.Indices[i+2]
		if a == restart || b == restart || c == restart {
			flip = false
			continue
		}
		if a != b && b != c && a != c {
			if flip {
				tris = append(tris, [3]uint32{a, c, b})
			} else {
				tris = append(tris, [3]uint32{a, b, c})
			}
		}
		flip = !flip
	}
	return tris
}

// VertexBuffer is a run of fixed-stride vertices in the data segment.
type VertexBuffer struct {
	BufferIndex  int32
	LayoutIndex  int32
	Stride       int32 // bytes per vertex
	VertexCount  int32
	BufferOffset int32 // relative to Header.DataOffset

	Layout   *BufferLayout
	Vertices []Vertex
}

func readMesh(r *binreader.Reader, m *Mesh, version Version) error {
	f := &fields{r: r}
	m.Dynamic = f.boolean()
	f.assertU8("mesh.unk01", 0)
	f.assertU8("mesh.unk02", 0)
	f.assertU8("mesh.unk03", 0)

	m.MaterialIndex = f.i32()
	f.assertI32("mesh.unk08", 0)
	if version <= VersionMeshLegacyPadding {
		f.assertI32("mesh.unk0c", 0)
	}
	m.DefaultBoneIndex = f.i32()

	boneCount := f.i32()
	m.Unk1 = f.assertI32("mesh.unk1", 0, 1, 10)

	if version.AtLeast(VersionMeshBoundingBox) {
		bbOffset := f.i32()
		f.at(int64(bbOffset), func() {
			m.BoundingBox = &BoundingBox{Min: f.vec3(), Max: f.vec3()}
			if version.AtLeast(VersionMeshBoundingBoxUnk) {
				unk := f.vec3()
				m.BoundingBoxUnk = &unk
			}
		})
	}

	boneOffset := f.i32()
	m.BoneIndices = f.int32sAt(boneOffset, boneCount)

	faceSetCount := f.i32()
	faceSetOffset := f.i32()
	m.FaceSetIndices = f.int32sAt(faceSetOffset, faceSetCount)

	vbCount := f.assertI32("mesh.vertexBufferCount", 1, 2, 3)
	vbOffset := f.i32()
	m.VertexBufferIndices = f.int32sAt(vbOffset, vbCount)

	return f.err
}

func readFaceSet(r *binreader.Reader, fs *FaceSet, dataOffset int32) error {
	f := &fields{r: r}
	fs.Flags = f.u32()
	fs.TriangleStrip = f.boolean()
	fs.CullBackfaces = f.boolean()
	fs.Unk06 = f.u8()
	fs.Unk07 = f.u8()

	count := f.i32()
	offset := int64(dataOffset) + int64(f.i32())
	fs.IndexBufferSize = f.i32()
	f.assertI32("faceset.unk14", 0)
	fs.IndexSize = f.assertI32("faceset.indexSize", 0, 16, 32)
	f.assertI32("faceset.unk1c", 0)
	if f.err != nil {
		return f.err
	}

	if fs.IndexBits() == 32 {
		indices, err := r.ReadUint32sAt(offset, int(count))
		if err != nil {
			return fmt.Errorf("reading 32-bit indices: %w", err)
		}
		fs.Indices = indices
		return nil
	}

	indices, err := r.ReadUint16sAt(offset, int(count))
	if err != nil {
		return fmt.Errorf("reading 16-bit indices: %w", err)
	}
	fs.Indices = make([]uint32, len(indices))
	for i, idx := range indices {
		fs.Indices[i] = uint32(idx)
	}
	return nil
}

func readVertexBuffer(r *binreader.Reader, vb *VertexBuffer) error {
	f := &fields{r: r}
	vb.BufferIndex = f.i32()
	vb.LayoutIndex = f.i32()
	vb.Stride = f.i32()
	vb.VertexCount = f.i32()
	f.assertI32("vertexbuffer.unk10", 0)
	f.assertI32("vertexbuffer.unk14", 0)
	size := f.i32()
	vb.BufferOffset = f.i32()
	if f.err != nil {
		return f.err
	}

	if vb.Stride < 0 || vb.VertexCount < 0 || (vb.Stride == 0 && vb.VertexCount > 0) {
		return fmt.Errorf("%w: stride %d, vertex count %d", ErrInvalidCount, vb.Stride, vb.VertexCount)
	}
	if want := int64(vb.Stride) * int64(vb.VertexCount); int64(size) != want {
		return fmt.Errorf("%w: stride %d * count %d = %d, declared %d",
			ErrStrideMismatch, vb.Stride, vb.VertexCount, want, size)
	}
	return nil
}
