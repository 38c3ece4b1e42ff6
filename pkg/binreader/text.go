package binreader

import (
	"fmt"

	"github.com/Faultbox/flverkit/pkg/encoding"
)

// ReadText16At reads a UTF-16 string terminated by a 0x0000 code unit at an
// absolute offset. The terminator is a whole code unit, so a unit such as
// 0x0100 does not end the string. The cursor is restored without touching
// the position stack.
func (r *Reader) ReadText16At(offset int64) (string, error) {
	saved := r.pos
	if err := r.seek(offset); err != nil {
		return "", err
	}

	var units []byte
	for {
		b, err := r.read(2)
		if err != nil {
			_ = r.seek(saved)
			return "", fmt.Errorf("reading text at 0x%X: %w", offset, err)
		}
		if b[0] == 0 && b[1] == 0 {
			break
		}
		units = append(units, b[0], b[1])
	}

	if err := r.seek(saved); err != nil {
		return "", err
	}
	return encoding.UTF16ToUTF8(units, r.order)
}
