// Package flver decodes FLVER2 model containers.
//
// A container holds a fixed header followed by pools of dummies, materials,
// bones, meshes, face sets, vertex buffers, buffer layouts and textures.
// Vertex attribute bytes live in a data segment and are interpreted through
// the buffer layouts declared in the same file.
package flver

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// Options controls decoding. The zero value accepts DefaultVersion, fails on
// unrecognized constants and uses TangentSource.
type Options struct {
	// AcceptedVersions lists container versions to decode. Empty means
	// DefaultVersion only.
	AcceptedVersions []Version

	// Permissive logs unrecognized known-constant fields instead of failing.
	Permissive bool

	TangentMode TangentMode

	Logger *zap.Logger
}

// DefaultOptions returns the strict default options.
func DefaultOptions() Options {
	return Options{
		AcceptedVersions: []Version{DefaultVersion},
		TangentMode:      TangentSource,
	}
}

func (o Options) accepted() []Version {
	if len(o.AcceptedVersions) == 0 {
		return []Version{DefaultVersion}
	}
	return o.AcceptedVersions
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Model is a decoded FLVER2 container. It owns every pool; meshes and
// vertex buffers point into them.
type Model struct {
	Header        Header
	Dummies       []Dummy
	Materials     []Material
	Bones         []Bone
	Meshes        []Mesh
	FaceSets      []FaceSet
	VertexBuffers []VertexBuffer
	BufferLayouts []BufferLayout
	Textures      []Texture

	resolved bool
}

// Parse decodes a FLVER2 container from a byte slice.
func Parse(data []byte, opts Options) (*Model, error) {
	return ParseReader(bytes.NewReader(data), opts)
}

// ParseFile decodes a FLVER2 container from disk.
func ParseFile(path string, opts Options) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FLVER file: %w", err)
	}
	return Parse(data, opts)
}

// ParseReader decodes a FLVER2 container whose first byte is at the current
// position of rs. The caller must not use rs until ParseReader returns.
// Offsets inside the container are absolute positions in rs.
func ParseReader(rs io.ReadSeeker, opts Options) (*Model, error) {
	log := opts.logger()

	magic, endianness, err := readPrefix(rs)
	if err != nil {
		return nil, err
	}

	readerOpts := []binreader.Option{binreader.WithLogger(log)}
	if opts.Permissive {
		readerOpts = append(readerOpts, binreader.WithPermissive(log))
	}
	r, err := binreader.NewReader(rs, endianness.ByteOrder(), readerOpts...)
	if err != nil {
		return nil, err
	}

	m := &Model{}
	m.Header.Magic = magic
	m.Header.Endianness = endianness

	if err := readHeader(&fields{r: r}, &m.Header, opts.accepted()); err != nil {
		return nil, fmt.Errorf("reading %s: %w", KindHeader, err)
	}
	h := &m.Header
	log.Debug("decoded FLVER header",
		zap.Stringer("version", h.Version),
		zap.Stringer("endianness", h.Endianness),
		zap.Int32("meshes", h.MeshCount),
		zap.Int32("vertexBuffers", h.VertexBufferCount),
		zap.Int32("bufferLayouts", h.BufferLayoutCount))

	if m.Dummies, err = readPool(r, KindDummy, h.DummyCount, readDummy); err != nil {
		return nil, err
	}
	if m.Materials, err = readPool(r, KindMaterial, h.MaterialCount, readMaterial); err != nil {
		return nil, err
	}
	if m.Bones, err = readPool(r, KindBone, h.BoneCount, readBone); err != nil {
		return nil, err
	}
	m.Meshes, err = readPool(r, KindMesh, h.MeshCount, func(r *binreader.Reader, mesh *Mesh) error {
		return readMesh(r, mesh, h.Version)
	})
	if err != nil {
		return nil, err
	}
	m.FaceSets, err = readPool(r, KindFaceSet, h.FaceSetCount, func(r *binreader.Reader, fs *FaceSet) error {
		return readFaceSet(r, fs, h.DataOffset)
	})
	if err != nil {
		return nil, err
	}
	if m.VertexBuffers, err = readPool(r, KindVertexBuffer, h.VertexBufferCount, readVertexBuffer); err != nil {
		return nil, err
	}
	if m.BufferLayouts, err = readPool(r, KindBufferLayout, h.BufferLayoutCount, readBufferLayout); err != nil {
		return nil, err
	}
	if m.Textures, err = readPool(r, KindTexture, h.TextureCount, readTexture); err != nil {
		return nil, err
	}

	if err := m.resolve(); err != nil {
		return nil, err
	}

	if err := m.decodeVertices(r, NewVertexDecoder(h.Version, opts.TangentMode)); err != nil {
		return nil, err
	}

	if r.Depth() != 0 {
		return nil, fmt.Errorf("%w: depth %d", ErrStackNotEmpty, r.Depth())
	}

	log.Debug("decoded FLVER model",
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("vertices", m.TotalVertexCount()),
		zap.Int("indices", m.TotalIndexCount()))
	return m, nil
}

// readPool decodes count consecutive records of one kind.
func readPool[T any](r *binreader.Reader, kind EntityKind, count int32, read func(*binreader.Reader, *T) error) ([]T, error) {
	// A record is never smaller than 16 bytes, so a count larger than the
	// source is corrupt.
	if count < 0 || int64(count) > r.Size() {
		return nil, fmt.Errorf("%w: %d %s records", ErrInvalidCount, count, kind)
	}

	pool := make([]T, count)
	for i := range pool {
		if err := read(r, &pool[i]); err != nil {
			return nil, &EntityError{Kind: kind, Index: i, Err: err}
		}
	}
	return pool, nil
}

// decodeVertices decodes every vertex buffer referenced by a mesh. Buffers
// shared by several meshes are decoded once.
func (m *Model) decodeVertices(r *binreader.Reader, vd *VertexDecoder) error {
	decoded := make([]bool, len(m.VertexBuffers))
	for _, mesh := range m.Meshes {
		for _, idx := range mesh.VertexBufferIndices {
			if decoded[idx] {
				continue
			}
			vb := &m.VertexBuffers[idx]
			vertices, err := vd.DecodeBuffer(r, vb, int64(m.Header.DataOffset))
			if err != nil {
				return &EntityError{Kind: KindVertexBuffer, Index: int(idx), Err: err}
			}
			vb.Vertices = vertices
			decoded[idx] = true
		}
	}
	return nil
}

// TotalVertexCount returns the number of decoded vertices across all buffers.
func (m *Model) TotalVertexCount() int {
	total := 0
	for _, vb := range m.VertexBuffers {
		total += len(vb.Vertices)
	}
	return total
}

// TotalIndexCount returns the number of face indices across all face sets.
func (m *Model) TotalIndexCount() int {
	total := 0
	for _, fs := range m.FaceSets {
		total += len(fs.Indices)
	}
	return total
}

// MeshMaterial returns the material of a mesh, or nil if its index is out of range.
func (m *Model) MeshMaterial(mesh *Mesh) *Material {
	if mesh.MaterialIndex < 0 || int(mesh.MaterialIndex) >= len(m.Materials) {
		return nil
	}
	return &m.Materials[mesh.MaterialIndex]
}

// MaterialTextures returns the textures a material references.
func (m *Model) MaterialTextures(mat *Material) []Texture {
	start, end := int(mat.TextureIndex), int(mat.TextureIndex)+int(mat.TextureCount)
	if start < 0 || mat.TextureCount < 0 || end > len(m.Textures) {
		return nil
	}
	return m.Textures[start:end]
}
