// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package bde

import (
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// byteReader is a bounds-checked cursor over a fixed byte slice, used by
// the volume header, FVE metadata, and metadata entry parsers. Every
// read reports a *Error with KindInvalidData instead of panicking, so a
// truncated or malformed block fails that block's parse rather than the
// whole process (spec.md §7 "Propagation policy").
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) need(n int) error {
	if n < 0 || r.remaining() < n {
		return newError(KindInvalidData, "unexpected end of data: need %d bytes, have %d", n, r.remaining())
	}
	return nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) guid() (GUID, error) {
	b, err := r.bytes(16)
	if err != nil {
		return GUID{}, err
	}
	return ParseGUID(b)
}

// filetimeEpoch is the offset, in 100ns ticks, between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpoch = 116444736000000000

// filetimeToTime converts a raw FILETIME (100ns ticks since 1601-01-01)
// into a time.Time. A value of zero maps to the zero time.
func filetimeToTime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	unixTicks := int64(ft) - filetimeEpoch
	return time.Unix(unixTicks/10000000, (unixTicks%10000000)*100).UTC()
}

// decodeUTF16LE decodes a little-endian UTF-16 byte slice (optionally
// NUL-terminated) into a Go string.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u16s := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		v := binary.LittleEndian.Uint16(b[i : i+2])
		if v == 0 {
			break
		}
		u16s = append(u16s, v)
	}
	return string(utf16.Decode(u16s))
}

// encodeUTF16LE encodes a Go string into little-endian UTF-16 bytes
// (no terminator), used when hashing a user password (spec.md §4.F).
func encodeUTF16LE(s string) []byte {
	u16s := utf16.Encode([]rune(s))
	out := make([]byte, len(u16s)*2)
	for i, v := range u16s {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], v)
	}
	return out
}

func le128(v uint64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[:8], v)
	return b
}
