package flver

import "fmt"

// resolve binds mesh and vertex buffer indices to entries of the model's
// pools and checks mesh bone indices against the bone pool. It must run once, after every pool is decoded and before vertices
// are decoded.
func (m *Model) resolve() error {
	if m.resolved {
		return ErrAlreadyResolved
	}

	for i := range m.VertexBuffers {
		vb := &m.VertexBuffers[i]
		if err := checkIndex(vb.LayoutIndex, len(m.BufferLayouts), "buffer layout"); err != nil {
			return &EntityError{Kind: KindVertexBuffer, Index: i, Err: err}
		}
		vb.Layout = &m.BufferLayouts[vb.LayoutIndex]
	}

	for i := range m.Meshes {
		mesh := &m.Meshes[i]

		for _, idx := range mesh.BoneIndices {
			if err := checkIndex(idx, len(m.Bones), "bone"); err != nil {
				return &EntityError{Kind: KindMesh, Index: i, Err: err}
			}
		}

		mesh.FaceSets = make([]*FaceSet, len(mesh.FaceSetIndices))
		for j, idx := range mesh.FaceSetIndices {
			if err := checkIndex(idx, len(m.FaceSets), "face set"); err != nil {
				return &EntityError{Kind: KindMesh, Index: i, Err: err}
			}
			mesh.FaceSets[j] = &m.FaceSets[idx]
		}

		mesh.VertexBuffers = make([]*VertexBuffer, len(mesh.VertexBufferIndices))
		for j, idx := range mesh.VertexBufferIndices {
			if err := checkIndex(idx, len(m.VertexBuffers), "vertex buffer"); err != nil {
				return &EntityError{Kind: KindMesh, Index: i, Err: err}
			}
			mesh.VertexBuffers[j] = &m.VertexBuffers[idx]
		}
	}

	m.resolved = true
	return nil
}

func checkIndex(idx int32, n int, pool string) error {
	if idx < 0 || int(idx) >= n {
		return fmt.Errorf("%w: %s %d (pool has %d)", ErrIndexOutOfRange, pool, idx, n)
	}
	return nil
}
