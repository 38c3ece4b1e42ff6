package flver

import (
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// HeaderSize is the size of the fixed FLVER2 header in bytes.
const HeaderSize = 0x80

// prefixSize covers the magic and the endianness tag.
const prefixSize = 8

// Version is the FLVER container version, e.g. 0x2001A.
type Version uint32

// Versions that change how records are laid out.
const (
	VersionUVScale2048        Version = 0x20009 // UV divisor grows from 1024 to 2048
	VersionMeshLegacyPadding  Version = 0x20010 // last version with the extra mesh reserved field
	VersionMeshBoundingBox    Version = 0x20013 // meshes carry a bounding box
	VersionMeshBoundingBoxUnk Version = 0x2001A // mesh bounding box gains a third vector
)

// DefaultVersion is the only version accepted unless Options broadens the set.
const DefaultVersion Version = 0x2001A

// String returns the version in hex, matching how it is usually written.
func (v Version) String() string {
	return fmt.Sprintf("0x%X", uint32(v))
}

// AtLeast returns true if v >= other.
func (v Version) AtLeast(other Version) bool {
	return v >= other
}

// Endianness is the byte order declared by the file.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// String returns "little" or "big".
func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ByteOrder returns the matching encoding/binary byte order.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Header is the fixed FLVER2 file header.
type Header struct {
	Magic      [6]byte
	Endianness Endianness
	Version    Version

	DataOffset int32 // base of the vertex and index data segment
	DataSize   int32

	DummyCount        int32
	MaterialCount     int32
	BoneCount         int32
	MeshCount         int32
	VertexBufferCount int32

	BoundingBox    BoundingBox
	Unk40          int32
	TotalFaceCount int32

	Unk48 uint8 // 0x00 or 0x10
	Unk4A bool
	Unk4E int16 // 0 or -1

	FaceSetCount      int32
	BufferLayoutCount int32
	TextureCount      int32

	Unk5C int32
	Unk68 int32 // 0 through 4
}

// readPrefix reads the magic and endianness tag straight from the source.
// On an invalid tag nothing past the prefix has been consumed.
func readPrefix(r io.Reader) (magic [6]byte, e Endianness, err error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return magic, 0, fmt.Errorf("reading header prefix: %w", err)
	}
	copy(magic[:], prefix[:6])

	switch string(prefix[6:8]) {
	case "B\x00":
		return magic, BigEndian, nil
	case "L\x00":
		return magic, LittleEndian, nil
	default:
		return magic, 0, fmt.Errorf("%w: %q", ErrInvalidEndianness, prefix[6:8])
	}
}

// readHeader reads the header fields that follow the prefix.
func readHeader(f *fields, h *Header, accepted []Version) error {
	h.Version = Version(f.u32())
	if f.err != nil {
		return f.err
	}
	if !slices.Contains(accepted, h.Version) {
		return fmt.Errorf("%w: %s (accepted %v)", ErrUnsupportedVersion, h.Version, accepted)
	}

	h.DataOffset = f.i32()
	h.DataSize = f.i32()
	h.DummyCount = f.i32()
	h.MaterialCount = f.i32()
	h.BoneCount = f.i32()
	h.MeshCount = f.i32()
	h.VertexBufferCount = f.i32()

	h.BoundingBox.Min = f.vec3()
	h.BoundingBox.Max = f.vec3()

	h.Unk40 = f.i32()
	h.TotalFaceCount = f.i32()

	h.Unk48 = f.assertU8("header.unk48", 0x00, 0x10)
	f.assertBool("header.unk49", true)
	h.Unk4A = f.boolean()
	f.assertU8("header.unk4b", 0)

	f.assertI16("header.unk4c", 0)
	h.Unk4E = f.assertI16("header.unk4e", 0, -1)

	h.FaceSetCount = f.i32()
	h.BufferLayoutCount = f.i32()
	h.TextureCount = f.i32()

	h.Unk5C = f.i32()
	f.assertI32("header.unk60", 0)
	f.assertI32("header.unk64", 0)
	h.Unk68 = f.assertI32("header.unk68", 0, 1, 2, 3, 4)
	for i := 0; i < 5; i++ {
		f.assertI32("header.reserved", 0)
	}

	return f.err
}
