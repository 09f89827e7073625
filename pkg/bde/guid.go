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
	"fmt"

	"github.com/google/uuid"
)

// GUID is a Microsoft-style 16-byte identifier. On disk its first three
// fields are little-endian (unlike the RFC 4122 byte order google/uuid
// assumes), so the wire layout is decoded by hand here and only handed
// to google/uuid for text formatting and parsing.
type GUID [16]byte

// Well-known GUIDs referenced by the volume header parser (spec.md §4.D).
var (
	GUIDBitLockerWin7   = mustGUID("4967D63B-2E29-4AD8-8399-F6A339E3D001")
	GUIDBitLockerToGo   = mustGUID("92A84D3B-DD80-4D0E-9E4E-B1E3284EAED8")
	GUIDZero            = GUID{}
)

// ParseGUID reads a 16-byte Microsoft-layout GUID from data.
func ParseGUID(data []byte) (GUID, error) {
	var g GUID
	if len(data) < 16 {
		return g, newError(KindInvalidData, "guid: need 16 bytes, got %d", len(data))
	}
	copy(g[:], data[:16])
	return g, nil
}

// String renders the GUID in the canonical
// "XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX" form.
func (g GUID) String() string {
	var rfc [16]byte
	binary.BigEndian.PutUint32(rfc[0:4], binary.LittleEndian.Uint32(g[0:4]))
	binary.BigEndian.PutUint16(rfc[4:6], binary.LittleEndian.Uint16(g[4:6]))
	binary.BigEndian.PutUint16(rfc[6:8], binary.LittleEndian.Uint16(g[6:8]))
	copy(rfc[8:], g[8:16])

	id, err := uuid.FromBytes(rfc[:])
	if err != nil {
		// Unreachable: FromBytes only rejects length mismatches, and
		// rfc is always exactly 16 bytes.
		return fmt.Sprintf("%x", [16]byte(g))
	}
	return id.String()
}

func (g GUID) IsZero() bool { return g == GUIDZero }

func mustGUID(s string) GUID {
	id := uuid.MustParse(s)
	rfc, _ := id.MarshalBinary()

	var g GUID
	binary.LittleEndian.PutUint32(g[0:4], binary.BigEndian.Uint32(rfc[0:4]))
	binary.LittleEndian.PutUint16(g[4:6], binary.BigEndian.Uint16(rfc[4:6]))
	binary.LittleEndian.PutUint16(g[6:8], binary.BigEndian.Uint16(rfc[6:8]))
	copy(g[8:], rfc[8:16])
	return g
}
