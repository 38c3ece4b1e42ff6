// Package binreader provides an endian-aware random-access reader with a
// scoped position stack for offset-driven binary formats.
//
// A Reader is meant to be scoped to one decode. The position stack and
// cursor are mutable state, so a Reader must not be shared between
// goroutines.
package binreader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Reader reads scalars from a seekable byte source in a fixed byte order.
type Reader struct {
	rs         io.ReadSeeker
	order      binary.ByteOrder
	pos        int64
	size       int64
	positions  []int64
	permissive bool
	log        *zap.Logger
	scratch    [8]byte
}

// Option configures a Reader.
type Option func(*Reader)

// WithPermissive makes assertion failures log a warning and return the raw
// value instead of failing.
func WithPermissive(log *zap.Logger) Option {
	return func(r *Reader) {
		r.permissive = true
		if log != nil {
			r.log = log
		}
	}
}

// WithLogger sets the logger used for drift warnings.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReader wraps rs. Reading starts at the source's current position.
func NewReader(rs io.ReadSeeker, order binary.ByteOrder, opts ...Option) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("querying position: %w", err)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("querying size: %w", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("restoring position: %w", err)
	}

	r := &Reader{
		rs:    rs,
		order: order,
		pos:   pos,
		size:  size,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Order returns the reader's byte order.
func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

// Position returns the current absolute offset.
func (r *Reader) Position() int64 {
	return r.pos
}

// Size returns the total length of the source.
func (r *Reader) Size() int64 {
	return r.size
}

// Depth returns the number of outstanding Push calls.
func (r *Reader) Depth() int {
	return len(r.positions)
}

// Push saves the current position and moves to offset.
func (r *Reader) Push(offset int64) error {
	saved := r.pos
	if err := r.seek(offset); err != nil {
		return err
	}
	r.positions = append(r.positions, saved)
	return nil
}

// Pop returns to the position saved by the most recent Push.
func (r *Reader) Pop() error {
	n := len(r.positions)
	if n == 0 {
		return ErrStackUnderflow
	}
	saved := r.positions[n-1]
	r.positions = r.positions[:n-1]
	return r.seek(saved)
}

// Skip moves the cursor forward by n bytes.
func (r *Reader) Skip(n int64) error {
	return r.seek(r.pos + n)
}

func (r *Reader) seek(offset int64) error {
	if offset < 0 || offset > r.size {
		return fmt.Errorf("%w: 0x%X (size 0x%X)", ErrOutOfRange, offset, r.size)
	}
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to 0x%X: %w", offset, err)
	}
	r.pos = offset
	return nil
}

// read fills a scratch buffer for n <= 8; the result is only valid until the
// next read.
func (r *Reader) read(n int) ([]byte, error) {
	var buf []byte
	if n <= len(r.scratch) {
		buf = r.scratch[:n]
	} else {
		buf = make([]byte, n)
	}
	start := r.pos
	got, err := io.ReadFull(r.rs, buf)
	r.pos += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %d bytes at 0x%X: %w", n, start, err)
	}
	return buf, nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	if n <= len(r.scratch) {
		b, err := r.read(n)
		if err != nil {
			return nil, err
		}
		return slices.Clone(b), nil
	}
	return r.read(n)
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadVector3 reads three consecutive floats.
func (r *Reader) ReadVector3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := r.ReadFloat32()
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// AssertUint8 reads a byte and checks it against the accepted values.
func (r *Reader) AssertUint8(field string, allowed ...uint8) (uint8, error) {
	return assertValue(r, field, r.ReadUint8, allowed)
}

// AssertBool reads a boolean byte and checks it against the accepted values.
func (r *Reader) AssertBool(field string, allowed ...bool) (bool, error) {
	return assertValue(r, field, r.ReadBool, allowed)
}

// AssertInt16 reads an int16 and checks it against the accepted values.
func (r *Reader) AssertInt16(field string, allowed ...int16) (int16, error) {
	return assertValue(r, field, r.ReadInt16, allowed)
}

// AssertInt32 reads an int32 and checks it against the accepted values.
func (r *Reader) AssertInt32(field string, allowed ...int32) (int32, error) {
	return assertValue(r, field, r.ReadInt32, allowed)
}

// AssertUint32 reads a uint32 and checks it against the accepted values.
func (r *Reader) AssertUint32(field string, allowed ...uint32) (uint32, error) {
	return assertValue(r, field, r.ReadUint32, allowed)
}

func assertValue[T comparable](r *Reader, field string, read func() (T, error), allowed []T) (T, error) {
	offset := r.pos
	v, err := read()
	if err != nil {
		return v, err
	}
	if slices.Contains(allowed, v) {
		return v, nil
	}

	verr := &ValidationError{Field: field, Offset: offset, Actual: v}
	for _, a := range allowed {
		verr.Allowed = append(verr.Allowed, a)
	}
	return v, r.drift(verr)
}

// drift reports an unrecognized value. In permissive mode the value is kept.
func (r *Reader) drift(verr *ValidationError) error {
	if !r.permissive {
		return verr
	}
	r.log.Warn("unrecognized value",
		zap.String("field", verr.Field),
		zap.Int64("offset", verr.Offset),
		zap.Any("expected", verr.Allowed),
		zap.Any("actual", verr.Actual))
	return nil
}
