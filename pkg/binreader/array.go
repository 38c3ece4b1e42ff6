package binreader

import "fmt"

// maxPrealloc bounds slice preallocation so a corrupt count fails on a short
// read instead of an oversized allocation.
const maxPrealloc = 1 << 16

// ReadArrayAt pushes to offset, calls read count times, and pops.
// The cursor is restored even when an element fails.
func ReadArrayAt[T any](r *Reader, offset int64, count int, read func(*Reader) (T, error)) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if err := r.Push(offset); err != nil {
		return nil, err
	}

	out := make([]T, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		v, err := read(r)
		if err != nil {
			_ = r.Pop()
			return nil, fmt.Errorf("element %d at 0x%X: %w", i, offset, err)
		}
		out = append(out, v)
	}

	if err := r.Pop(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt32sAt reads count int32 values at offset.
func (r *Reader) ReadInt32sAt(offset int64, count int) ([]int32, error) {
	return ReadArrayAt(r, offset, count, (*Reader).ReadInt32)
}

// ReadUint16sAt reads count uint16 values at offset.
func (r *Reader) ReadUint16sAt(offset int64, count int) ([]uint16, error) {
	return ReadArrayAt(r, offset, count, (*Reader).ReadUint16)
}

// ReadUint32sAt reads count uint32 values at offset.
func (r *Reader) ReadUint32sAt(offset int64, count int) ([]uint32, error) {
	return ReadArrayAt(r, offset, count, (*Reader).ReadUint32)
}

// ReadBytesAt reads n bytes at offset without moving the cursor.
func (r *Reader) ReadBytesAt(offset int64, n int) ([]byte, error) {
	if err := r.Push(offset); err != nil {
		return nil, err
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		_ = r.Pop()
		return nil, err
	}
	if err := r.Pop(); err != nil {
		return nil, err
	}
	return b, nil
}
