package flver

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Helpers for assembling synthetic FLVER2 files.

type writer struct {
	order binary.ByteOrder
	buf   []byte
}

func (w *writer) pos() int32 { return int32(len(w.buf)) }

func (w *writer) raw(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) i8(v int8) { w.u8(uint8(v)) }

func (w *writer) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.raw(b[:])
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.raw(b[:])
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) vec3(v mgl32.Vec3) {
	for _, x := range v {
		w.f32(x)
	}
}

// placeholder writes a zero int32 and returns its position for patch.
func (w *writer) placeholder() int32 {
	at := w.pos()
	w.i32(0)
	return at
}

func (w *writer) patch(at, v int32) {
	w.order.PutUint32(w.buf[at:], uint32(v))
}

// text writes s as null-terminated UTF-16 in the writer's byte order.
func (w *writer) text(s string) {
	endian := unicode.LittleEndian
	if w.order == binary.BigEndian {
		endian = unicode.BigEndian
	}
	b, _, err := transform.Bytes(unicode.UTF16(endian, unicode.IgnoreBOM).NewEncoder(), []byte(s))
	if err != nil {
		panic(err)
	}
	w.raw(b)
	w.u16(0)
}

var testMagic = [6]byte{'F', 'L', 'V', 'E', 'R', 0}

// writeHeader encodes h the way readHeader expects it.
func writeHeader(w *writer, h *Header) {
	w.raw(h.Magic[:])
	if h.Endianness == BigEndian {
		w.raw([]byte("B\x00"))
	} else {
		w.raw([]byte("L\x00"))
	}
	w.u32(uint32(h.Version))
	w.i32(h.DataOffset)
	w.i32(h.DataSize)
	w.i32(h.DummyCount)
	w.i32(h.MaterialCount)
	w.i32(h.BoneCount)
	w.i32(h.MeshCount)
	w.i32(h.VertexBufferCount)
	w.vec3(h.BoundingBox.Min)
	w.vec3(h.BoundingBox.Max)
	w.i32(h.Unk40)
	w.i32(h.TotalFaceCount)
	w.u8(h.Unk48)
	w.boolean(true)
	w.boolean(h.Unk4A)
	w.u8(0)
	w.i16(0)
	w.i16(h.Unk4E)
	w.i32(h.FaceSetCount)
	w.i32(h.BufferLayoutCount)
	w.i32(h.TextureCount)
	w.i32(h.Unk5C)
	w.i32(0)
	w.i32(0)
	w.i32(h.Unk68)
	for i := 0; i < 5; i++ {
		w.i32(0)
	}
}

type gxSection struct {
	id      int32
	length  int32 // overrides the computed length when non-zero
	payload []byte
}

type fxMaterial struct {
	name, mtd string
	gx        []gxSection
}

type fxMesh struct {
	materialIndex int32
	bones         []int32
	faceSets      []int32
	vertexBuffers []int32
}

type fxFaceSet struct {
	strip     bool
	indexSize int32
	indices   []uint32
}

type fxVertexBuffer struct {
	layout       int32
	stride       int32
	count        int32
	data         []byte
	declaredSize *int32 // overrides stride*count when set
}

type fxTexture struct {
	path, typ string
}

// fixture describes a FLVER2 file at the record level.
type fixture struct {
	order   binary.ByteOrder
	version Version
	unk68   int32

	dummies       int
	materials     []fxMaterial
	bones         []string
	meshes        []fxMesh
	faceSets      []fxFaceSet
	vertexBuffers []fxVertexBuffer
	layouts       [][]BufferLayoutMember
	textures      []fxTexture
}

func newFixture(order binary.ByteOrder) *fixture {
	return &fixture{order: order, version: DefaultVersion}
}

// build lays out header, record tables, an auxiliary block for strings and
// index arrays, then the data segment.
func (fx *fixture) build() []byte {
	w := &writer{order: fx.order}
	var fixups []func()

	h := &Header{
		Magic:             testMagic,
		Version:           fx.version,
		DummyCount:        int32(fx.dummies),
		MaterialCount:     int32(len(fx.materials)),
		BoneCount:         int32(len(fx.bones)),
		MeshCount:         int32(len(fx.meshes)),
		VertexBufferCount: int32(len(fx.vertexBuffers)),
		BoundingBox:       BoundingBox{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
		Unk48:             0x10,
		Unk4E:             -1,
		FaceSetCount:      int32(len(fx.faceSets)),
		BufferLayoutCount: int32(len(fx.layouts)),
		TextureCount:      int32(len(fx.textures)),
		Unk68:             fx.unk68,
	}
	if fx.order == binary.BigEndian {
		h.Endianness = BigEndian
	}
	writeHeader(w, h)

	for i := 0; i < fx.dummies; i++ {
		w.vec3(mgl32.Vec3{float32(i), 0, 0})
		w.u8(0xFF)
		w.u8(0xFF)
		w.i16(0)
		w.vec3(mgl32.Vec3{0, 0, 1})
		w.i16(int16(100 + i))
		w.i16(-1)
		w.vec3(mgl32.Vec3{0, 1, 0})
		w.i16(-1)
		w.boolean(true)
		w.boolean(false)
		w.i32(0)
		w.i32(0)
		w.i32(0)
		w.i32(0)
	}

	for _, mat := range fx.materials {
		mat := mat
		nameAt := w.placeholder()
		mtdAt := w.placeholder()
		w.i32(1)
		w.i32(0)
		w.i32(0)
		gxAt := w.placeholder()
		w.i32(0)
		w.i32(0)
		fixups = append(fixups, func() {
			w.patch(nameAt, w.pos())
			w.text(mat.name)
			w.patch(mtdAt, w.pos())
			w.text(mat.mtd)
			if len(mat.gx) > 0 {
				w.patch(gxAt, w.pos())
				for _, s := range mat.gx {
					w.i32(s.id)
					w.i32(0)
					length := int32(gxSectionHeaderSize + len(s.payload))
					if s.length != 0 {
						length = s.length
					}
					w.i32(length)
					w.raw(s.payload)
				}
			}
		})
	}

	for i, name := range fx.bones {
		name := name
		w.vec3(mgl32.Vec3{0, float32(i), 0})
		nameAt := w.placeholder()
		w.vec3(mgl32.Vec3{})
		w.i16(int16(i - 1))
		w.i16(-1)
		w.vec3(mgl32.Vec3{1, 1, 1})
		w.i16(-1)
		w.i16(-1)
		w.vec3(mgl32.Vec3{-1, -1, -1})
		w.i32(0)
		w.vec3(mgl32.Vec3{1, 1, 1})
		for j := 0; j < 13; j++ {
			w.i32(0)
		}
		fixups = append(fixups, func() {
			w.patch(nameAt, w.pos())
			w.text(name)
		})
	}

	for _, mesh := range fx.meshes {
		mesh := mesh
		w.boolean(false)
		w.u8(0)
		w.u8(0)
		w.u8(0)
		w.i32(mesh.materialIndex)
		w.i32(0)
		if fx.version <= VersionMeshLegacyPadding {
			w.i32(0)
		}
		w.i32(0)
		w.i32(int32(len(mesh.bones)))
		w.i32(0)
		bbAt := int32(-1)
		if fx.version.AtLeast(VersionMeshBoundingBox) {
			bbAt = w.placeholder()
		}
		boneAt := w.placeholder()
		w.i32(int32(len(mesh.faceSets)))
		faceSetAt := w.placeholder()
		w.i32(int32(len(mesh.vertexBuffers)))
		vbAt := w.placeholder()

		fixups = append(fixups, func() {
			if bbAt >= 0 {
				w.patch(bbAt, w.pos())
				w.vec3(mgl32.Vec3{-2, -2, -2})
				w.vec3(mgl32.Vec3{2, 2, 2})
				if fx.version.AtLeast(VersionMeshBoundingBoxUnk) {
					w.vec3(mgl32.Vec3{0, 0, 0})
				}
			}
			w.patch(boneAt, w.pos())
			for _, b := range mesh.bones {
				w.i32(b)
			}
			w.patch(faceSetAt, w.pos())
			for _, fs := range mesh.faceSets {
				w.i32(fs)
			}
			w.patch(vbAt, w.pos())
			for _, vb := range mesh.vertexBuffers {
				w.i32(vb)
			}
		})
	}

	faceSetOffsets := make([]int32, len(fx.faceSets))
	for i, fs := range fx.faceSets {
		w.u32(0)
		w.boolean(fs.strip)
		w.boolean(true)
		w.u8(0)
		w.u8(0)
		w.i32(int32(len(fs.indices)))
		faceSetOffsets[i] = w.placeholder()
		w.i32(int32(len(fs.indices)) * indexBytes(fs.indexSize))
		w.i32(0)
		w.i32(fs.indexSize)
		w.i32(0)
	}

	vbOffsets := make([]int32, len(fx.vertexBuffers))
	for i, vb := range fx.vertexBuffers {
		w.i32(int32(i))
		w.i32(vb.layout)
		w.i32(vb.stride)
		w.i32(vb.count)
		w.i32(0)
		w.i32(0)
		if vb.declaredSize != nil {
			w.i32(*vb.declaredSize)
		} else {
			w.i32(vb.stride * vb.count)
		}
		vbOffsets[i] = w.placeholder()
	}

	for _, members := range fx.layouts {
		members := members
		w.i32(int32(len(members)))
		w.i32(0)
		w.i32(0)
		memberAt := w.placeholder()
		fixups = append(fixups, func() {
			w.patch(memberAt, w.pos())
			var structOffset int32
			for _, m := range members {
				w.i32(structOffset)
				w.u32(uint32(m.Type))
				w.u32(uint32(m.Semantic))
				w.i32(m.Index)
				if size, err := m.Size(); err == nil {
					structOffset += int32(size)
				}
			}
		})
	}

	for _, tex := range fx.textures {
		tex := tex
		pathAt := w.placeholder()
		typeAt := w.placeholder()
		w.f32(1)
		w.f32(1)
		w.u8(1)
		w.boolean(true)
		w.u8(0)
		w.u8(0)
		w.i32(0)
		w.i32(0)
		w.i32(0)
		fixups = append(fixups, func() {
			w.patch(pathAt, w.pos())
			w.text(tex.path)
			w.patch(typeAt, w.pos())
			w.text(tex.typ)
		})
	}

	for _, fix := range fixups {
		fix()
	}

	dataOffset := w.pos()
	for i, fs := range fx.faceSets {
		w.patch(faceSetOffsets[i], w.pos()-dataOffset)
		for _, idx := range fs.indices {
			if fs.indexSize == 32 {
				w.u32(idx)
			} else {
				w.u16(uint16(idx))
			}
		}
	}
	for i, vb := range fx.vertexBuffers {
		w.patch(vbOffsets[i], w.pos()-dataOffset)
		w.raw(vb.data)
	}

	// DataOffset and DataSize follow the magic, tag and version.
	w.patch(12, dataOffset)
	w.patch(16, w.pos()-dataOffset)
	return w.buf
}

func indexBytes(indexSize int32) int32 {
	if indexSize == 32 {
		return 4
	}
	return 2
}

// float3Bytes encodes float triples in the given byte order.
func float3Bytes(order binary.ByteOrder, vs ...mgl32.Vec3) []byte {
	w := &writer{order: order}
	for _, v := range vs {
		w.vec3(v)
	}
	return w.buf
}

// positionOnly is a layout with a single Float3 position.
var positionOnly = []BufferLayoutMember{{Type: TypeFloat3, Semantic: SemanticPosition}}
