package flver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/flverkit/pkg/binreader"
)

// fields reads a run of record fields and keeps the first error.
// Every read after a failure is a no-op returning the zero value.
type fields struct {
	r   *binreader.Reader
	err error
}

func (f *fields) i32() int32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadInt32()
	f.err = err
	return v
}

func (f *fields) u32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUint32()
	f.err = err
	return v
}

func (f *fields) i16() int16 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadInt16()
	f.err = err
	return v
}

func (f *fields) u8() uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUint8()
	f.err = err
	return v
}

func (f *fields) boolean() bool {
	if f.err != nil {
		return false
	}
	v, err := f.r.ReadBool()
	f.err = err
	return v
}

func (f *fields) f32() float32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadFloat32()
	f.err = err
	return v
}

func (f *fields) vec3() mgl32.Vec3 {
	if f.err != nil {
		return mgl32.Vec3{}
	}
	v, err := f.r.ReadVector3()
	f.err = err
	return v
}

func (f *fields) assertI32(name string, allowed ...int32) int32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.AssertInt32(name, allowed...)
	f.err = err
	return v
}

func (f *fields) assertI16(name string, allowed ...int16) int16 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.AssertInt16(name, allowed...)
	f.err = err
	return v
}

func (f *fields) assertU8(name string, allowed ...uint8) uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.AssertUint8(name, allowed...)
	f.err = err
	return v
}

func (f *fields) assertBool(name string, allowed ...bool) bool {
	if f.err != nil {
		return false
	}
	v, err := f.r.AssertBool(name, allowed...)
	f.err = err
	return v
}

func (f *fields) text(offset int32) string {
	if f.err != nil {
		return ""
	}
	s, err := f.r.ReadText16At(int64(offset))
	f.err = err
	return s
}

func (f *fields) int32sAt(offset, count int32) []int32 {
	if f.err != nil {
		return nil
	}
	v, err := f.r.ReadInt32sAt(int64(offset), int(count))
	f.err = err
	return v
}

// at runs fn with the cursor moved to offset and restores it afterwards.
func (f *fields) at(offset int64, fn func()) {
	if f.err != nil {
		return
	}
	if f.err = f.r.Push(offset); f.err != nil {
		return
	}
	fn()
	if err := f.r.Pop(); f.err == nil {
		f.err = err
	}
}
