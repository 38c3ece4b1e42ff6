package flver

import (
	"errors"
	"fmt"
)

// Error classes. Specific errors wrap one of these.
var (
	ErrFormat = errors.New("unsupported FLVER format")
	ErrDecode = errors.New("FLVER decode error")
)

// FLVER format errors.
var (
	ErrInvalidEndianness  = fmt.Errorf("%w: invalid endianness tag", ErrFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)
)

// FLVER decode errors.
var (
	ErrUnknownType       = fmt.Errorf("%w: unknown layout type", ErrDecode)
	ErrUnsupportedMember = fmt.Errorf("%w: unsupported layout member", ErrDecode)
	ErrStrideMismatch    = fmt.Errorf("%w: vertex buffer size mismatch", ErrDecode)
	ErrIndexOutOfRange   = fmt.Errorf("%w: index out of range", ErrDecode)
	ErrBadSection        = fmt.Errorf("%w: invalid material extension section", ErrDecode)
	ErrInvalidCount      = fmt.Errorf("%w: invalid element count", ErrDecode)
	ErrUnresolved        = fmt.Errorf("%w: vertex buffer has no bound layout", ErrDecode)
)

// Reader discipline errors. These indicate a decoder bug, not bad input.
var (
	ErrStackNotEmpty   = errors.New("position stack not empty after decode")
	ErrAlreadyResolved = errors.New("model indices already resolved")
)

// EntityKind names a pool of FLVER records.
type EntityKind string

const (
	KindHeader       EntityKind = "header"
	KindDummy        EntityKind = "dummy"
	KindMaterial     EntityKind = "material"
	KindBone         EntityKind = "bone"
	KindMesh         EntityKind = "mesh"
	KindFaceSet      EntityKind = "face set"
	KindVertexBuffer EntityKind = "vertex buffer"
	KindBufferLayout EntityKind = "buffer layout"
	KindTexture      EntityKind = "texture"
)

// EntityError identifies the record that failed to decode.
type EntityError struct {
	Kind  EntityKind
	Index int
	Err   error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// VertexDecodeError reports a layout member whose semantic and type
// combination has no decode rule.
type VertexDecodeError struct {
	Semantic LayoutSemantic
	Type     LayoutType
}

func (e *VertexDecodeError) Error() string {
	return fmt.Sprintf("%v: semantic %s (0x%X) with type %s (0x%X)",
		ErrUnsupportedMember, e.Semantic, uint32(e.Semantic), e.Type, uint32(e.Type))
}

func (e *VertexDecodeError) Unwrap() error {
	return ErrUnsupportedMember
}
