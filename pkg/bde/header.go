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

// Variant identifies which on-disk boot sector layout was detected
// (spec.md §4.D).
type Variant int

const (
	VariantVista Variant = iota
	VariantWin7
)

func (v Variant) String() string {
	if v == VariantVista {
		return "vista"
	}
	return "win7"
}

const bootSectorSize = 512

var vistaSignature = []byte("-FVE-FS-")

// Windows 7+/ToGo OEM name strings observed at offset 3 of the boot
// sector; the actual discriminator is the BitLocker boot-code GUID at
// bootCodeGUIDOffset.
var win7OEMNames = [][]byte{
	[]byte("MSWIN4.1"),
	[]byte("NTFS    "),
}

const bootCodeGUIDOffset = 0x03 + 0x48 // OEM name (8) + BPB/EBPB through the boot-code GUID slot

// Header is the parsed 512-byte volume boot sector (spec.md §3
// "Volume header").
type Header struct {
	Variant          Variant
	BytesPerSector   uint16
	FirstUsableLBA   uint64
	FVEOffsets       [3]uint64
	EncryptedVolSize uint64 // not filled in by ParseHeader; the FVE block carries the size
}

// ParseHeader parses sector 0 of src, detecting the BDE variant by
// signature bytes (spec.md §4.D).
func ParseHeader(src Source) (*Header, error) {
	buf := make([]byte, bootSectorSize)
	if _, err := readFull(src, 0, buf); err != nil {
		return nil, err
	}

	if bytesEqual(buf[3:11], vistaSignature) {
		return parseVistaHeader(buf)
	}

	for _, oem := range win7OEMNames {
		if bytesEqual(buf[3:11], oem) {
			if guidBytes := safeSlice(buf, bootCodeGUIDOffset, 16); guidBytes != nil {
				g, err := ParseGUID(guidBytes)
				if err == nil && (g == GUIDBitLockerWin7 || g == GUIDBitLockerToGo) {
					return parseWin7Header(buf)
				}
			}
		}
	}

	return nil, newError(KindSignatureMismatch, "no recognized BitLocker boot sector signature")
}

// parseVistaHeader decodes the -FVE-FS- boot sector layout. The FVE
// metadata offsets sit at a fixed triple of 8-byte little-endian
// fields following the signature and sector-size fields.
func parseVistaHeader(buf []byte) (*Header, error) {
	r := newByteReader(buf[11:])

	bps, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(2); err != nil { // sectors per cluster + reserved, not needed
		return nil, err
	}

	r = newByteReader(buf[0x1A8:])
	var offsets [3]uint64
	for i := range offsets {
		off, err := r.u64()
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}

	return &Header{
		Variant:        VariantVista,
		BytesPerSector: bps,
		FirstUsableLBA: 0,
		FVEOffsets:     offsets,
	}, nil
}

// parseWin7Header decodes the MSWIN4.1/NTFS-named boot sector layout
// used by Windows 7+ and BitLocker To Go. The original boot sector's
// true contents live in a relocated volume-header-block pointed to by
// FVE metadata, not at LBA 0.
func parseWin7Header(buf []byte) (*Header, error) {
	r := newByteReader(buf[0x0B:])

	bps, err := r.u16()
	if err != nil {
		return nil, err
	}

	r = newByteReader(buf[0x1B8:])
	var offsets [3]uint64
	for i := range offsets {
		off, err := r.u64()
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}

	return &Header{
		Variant:        VariantWin7,
		BytesPerSector: bps,
		FirstUsableLBA: 0,
		FVEOffsets:     offsets,
	}, nil
}

func safeSlice(b []byte, off, n int) []byte {
	if off < 0 || n < 0 || off+n > len(b) {
		return nil
	}
	return b[off : off+n]
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readFull reads exactly len(buf) bytes at off from src, mapping any
// short read to KindReadFailed (spec.md §4.A).
func readFull(src Source, off int64, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := src.ReadAt(buf[total:], off+int64(total))
		total += n
		if total >= len(buf) {
			return total, nil
		}
		if err != nil {
			if bderr, ok := err.(*Error); ok {
				return total, bderr
			}
			return total, wrapError(KindReadFailed, err, "short read at offset %d", off+int64(total))
		}
		if n == 0 {
			return total, newError(KindReadFailed, "short read at offset %d: got %d of %d bytes", off, total, len(buf))
		}
	}
	return total, nil
}
