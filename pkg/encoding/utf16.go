// Package encoding provides text encoding utilities for FLVER string tables.
package encoding

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf16Encoding returns the x/text UTF-16 encoding matching the given byte
// order. Byte order marks are ignored; FLVER strings never carry one.
func utf16Encoding(order binary.ByteOrder) encoding.Encoding {
	if order == binary.BigEndian {
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

// UTF16ToUTF8 converts UTF-16 code units in the given byte order to a UTF-8 string.
// Unpaired surrogates decode to U+FFFD.
func UTF16ToUTF8(data []byte, order binary.ByteOrder) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("utf-16 data has odd length %d", len(data))
	}
	if len(data) == 0 {
		return "", nil
	}
	result, _, err := transform.Bytes(utf16Encoding(order).NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding utf-16: %w", err)
	}
	return string(result), nil
}
