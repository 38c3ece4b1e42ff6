package flver

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// gxTerminator is the section id that ends a material's GX extension block.
const gxTerminator = 0x7FFFFFFF

// gxSectionHeaderSize covers a section's id, unused and length fields.
const gxSectionHeaderSize = 12

// Dummy is a reference point attached to the skeleton.
type Dummy struct {
	Position        mgl32.Vec3
	Unk0C           uint8
	Unk0D           uint8
	Unk0E           int16
	Forward         mgl32.Vec3
	ReferenceID     int16
	DummyBoneIndex  int16
	Upward          mgl32.Vec3
	AttachBoneIndex int16
	Flag1           bool
	Flag2           bool
	Unk30           int32
	Unk34           int32
}

// Material references a shader definition and a run of textures.
type Material struct {
	Name         string
	MTD          string // material definition path
	TextureCount int32
	TextureIndex int32 // first texture in Model.Textures
	Flags        int32
	GXOffset     int32
	Unk18        int32
	GXBytes      []byte // raw GX extension block, terminator section included
}

// Bone is a node of the skeleton.
type Bone struct {
	Name                 string
	Translation          mgl32.Vec3
	Rotation             mgl32.Vec3
	Scale                mgl32.Vec3
	ParentIndex          int16
	ChildIndex           int16
	NextSiblingIndex     int16
	PreviousSiblingIndex int16
	BoundingBox          BoundingBox
	Unk3C                int32
}

// Texture is a texture path bound to a material slot.
type Texture struct {
	Path  string
	Type  string // sampler slot name
	Scale mgl32.Vec2
	Unk10 uint8
	Unk11 bool
	Unk14 int32
	Unk18 int32
	Unk1C int32
}

func readDummy(r *binreader.Reader, d *Dummy) error {
	f := &fields{r: r}
	d.Position = f.vec3()
	d.Unk0C = f.u8()
	d.Unk0D = f.u8()
	d.Unk0E = f.i16()
	d.Forward = f.vec3()
	d.ReferenceID = f.i16()
	d.DummyBoneIndex = f.i16()
	d.Upward = f.vec3()
	d.AttachBoneIndex = f.i16()
	d.Flag1 = f.boolean()
	d.Flag2 = f.boolean()
	d.Unk30 = f.i32()
	d.Unk34 = f.i32()
	f.assertI32("dummy.unk38", 0)
	f.assertI32("dummy.unk3c", 0)
	return f.err
}

func readMaterial(r *binreader.Reader, m *Material) error {
	f := &fields{r: r}
	nameOffset := f.i32()
	mtdOffset := f.i32()
	m.TextureCount = f.i32()
	m.TextureIndex = f.i32()
	m.Flags = f.i32()
	m.GXOffset = f.i32()
	m.Unk18 = f.i32()
	f.assertI32("material.unk1c", 0)

	m.Name = f.text(nameOffset)
	m.MTD = f.text(mtdOffset)
	if f.err != nil {
		return f.err
	}

	if m.GXOffset > 0 {
		gx, err := readGXBlock(r, int64(m.GXOffset))
		if err != nil {
			return fmt.Errorf("reading GX block: %w", err)
		}
		m.GXBytes = gx
	}
	return nil
}

// readGXBlock walks (id, unused, length) sections from offset until the
// terminator section and returns the whole span as raw bytes.
func readGXBlock(r *binreader.Reader, offset int64) ([]byte, error) {
	f := &fields{r: r}
	var end int64
	f.at(offset, func() {
		for f.err == nil {
			sectionOffset := r.Position()
			id := f.i32()
			f.i32()
			length := f.i32()
			if f.err != nil {
				return
			}
			if length < gxSectionHeaderSize {
				f.err = fmt.Errorf("%w: section 0x%X at 0x%X has length %d", ErrBadSection, id, sectionOffset, length)
				return
			}
			if f.err = r.Skip(int64(length - gxSectionHeaderSize)); f.err != nil {
				return
			}
			if id == gxTerminator {
				end = r.Position()
				return
			}
		}
	})
	if f.err != nil {
		return nil, f.err
	}
	return r.ReadBytesAt(offset, int(end-offset))
}

func readBone(r *binreader.Reader, b *Bone) error {
	f := &fields{r: r}
	b.Translation = f.vec3()
	nameOffset := f.i32()
	b.Rotation = f.vec3()
	b.ParentIndex = f.i16()
	b.ChildIndex = f.i16()
	b.Scale = f.vec3()
	b.NextSiblingIndex = f.i16()
	b.PreviousSiblingIndex = f.i16()
	b.BoundingBox.Min = f.vec3()
	b.Unk3C = f.i32()
	b.BoundingBox.Max = f.vec3()
	for i := 0; i < 13; i++ {
		f.assertI32("bone.reserved", 0)
	}
	b.Name = f.text(nameOffset)
	return f.err
}

func readTexture(r *binreader.Reader, t *Texture) error {
	f := &fields{r: r}
	pathOffset := f.i32()
	typeOffset := f.i32()
	t.Scale = mgl32.Vec2{f.f32(), f.f32()}
	t.Unk10 = f.assertU8("texture.unk10", 0, 1, 2)
	t.Unk11 = f.boolean()
	f.assertU8("texture.unk12", 0)
	f.assertU8("texture.unk13", 0)
	t.Unk14 = f.i32()
	t.Unk18 = f.i32()
	t.Unk1C = f.i32()

	t.Type = f.text(typeOffset)
	t.Path = f.text(pathOffset)
	return f.err
}
