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

import "time"

const (
	fveBlockOuterHeaderSize = 64
	fveBlockInnerHeaderSize = 100
	fveBlockHeaderSize      = fveBlockOuterHeaderSize + fveBlockInnerHeaderSize
	fveDescriptionFieldSize = 64 // UTF-16LE bytes, NUL-padded

	fveVersionMin = 1
	fveVersionMax = 2
)

var fveMagic = []byte("-FVE-FS-")

// Block is a single parsed, validated FVE metadata block (spec.md §3
// "FVE metadata block"). One of the three redundant copies on disk.
type Block struct {
	Size                uint32
	Version             uint16
	VolumeGUID          GUID
	SequenceNumber      uint64
	EncryptedVolumeSize uint64
	ConvertedAreaLength uint64
	IntegrityField      uint64

	NextNonceCounter uint32
	CreationTime     time.Time
	Description      string

	Entries []Entry
}

// ParseBlock parses and validates the FVE metadata block starting at
// offset off within src, per spec.md §4.E. A block is valid when its
// magic matches, its declared size fits in the volume, its version is
// 1 or 2, and its entries' sizes sum exactly to size-header.
func ParseBlock(src Source, off int64) (*Block, error) {
	// Read the fixed-size header region first; we learn the true block
	// size from it before reading entries.
	head := make([]byte, fveBlockHeaderSize)
	if _, err := readFull(src, off, head); err != nil {
		return nil, err
	}

	r := newByteReader(head[:fveBlockOuterHeaderSize])
	sig, err := r.bytes(8)
	if err != nil {
		return nil, err
	}
	if !bytesEqual(sig, fveMagic) {
		return nil, newError(KindInvalidData, "fve block at %d: bad magic", off)
	}
	size, err := r.u32()
	if err != nil {
		return nil, err
	}
	version, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}
	volGUID, err := r.guid()
	if err != nil {
		return nil, err
	}
	seq, err := r.u64()
	if err != nil {
		return nil, err
	}
	encVolSize, err := r.u64()
	if err != nil {
		return nil, err
	}
	convArea, err := r.u64()
	if err != nil {
		return nil, err
	}
	integrity, err := r.u64()
	if err != nil {
		return nil, err
	}

	if version < fveVersionMin || version > fveVersionMax {
		return nil, newError(KindInvalidData, "fve block at %d: unsupported version %d", off, version)
	}
	if size < fveBlockHeaderSize {
		return nil, newError(KindInvalidData, "fve block at %d: declared size %d smaller than header", off, size)
	}
	if off+int64(size) > src.Size() {
		return nil, newError(KindInvalidData, "fve block at %d: declared size %d extends past end of volume", off, size)
	}

	ir := newByteReader(head[fveBlockOuterHeaderSize:])
	if _, err := ir.guid(); err != nil { // volume GUID copy, not re-validated
		return nil, err
	}
	nonce, err := ir.u32()
	if err != nil {
		return nil, err
	}
	if _, err := ir.u32(); err != nil { // reserved
		return nil, err
	}
	creationRaw, err := ir.u64()
	if err != nil {
		return nil, err
	}
	descBytes, err := ir.bytes(fveDescriptionFieldSize)
	if err != nil {
		return nil, err
	}

	entriesLen := int(size) - fveBlockHeaderSize
	entryBuf := make([]byte, entriesLen)
	if entriesLen > 0 {
		if _, err := readFull(src, off+fveBlockHeaderSize, entryBuf); err != nil {
			return nil, err
		}
	}

	entries, err := parseEntries(entryBuf)
	if err != nil {
		return nil, wrapError(KindInvalidData, err, "fve block at %d: entries", off)
	}

	sum := 0
	for _, e := range entries {
		sum += int(e.Size)
	}
	if sum != entriesLen {
		return nil, newError(KindInvalidData, "fve block at %d: entry sizes sum to %d, expected %d", off, sum, entriesLen)
	}

	return &Block{
		Size:                size,
		Version:             version,
		VolumeGUID:          volGUID,
		SequenceNumber:      seq,
		EncryptedVolumeSize: encVolSize,
		ConvertedAreaLength: convArea,
		IntegrityField:      integrity,
		NextNonceCounter:    nonce,
		CreationTime:        filetimeToTime(creationRaw),
		Description:         decodeUTF16LE(descBytes),
		Entries:             entries,
	}, nil
}

// ParseBestBlock parses all three redundant FVE metadata blocks listed
// in header.FVEOffsets and returns the valid one with the highest
// sequence number (spec.md §4.E, §9 "picking the highest sequence
// number"). An invalid individual block does not fail the overall
// parse; only all three failing does (spec.md §7 "Propagation policy").
func ParseBestBlock(src Source, header *Header) (*Block, error) {
	var best *Block
	var firstErr error

	for _, off := range header.FVEOffsets {
		if off == 0 || int64(off) >= src.Size() {
			continue
		}
		blk, err := ParseBlock(src, int64(off))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best == nil || blk.SequenceNumber > best.SequenceNumber {
			best = blk
		}
	}

	if best == nil {
		if firstErr != nil {
			return nil, wrapError(KindInvalidData, firstErr, "all FVE metadata blocks invalid")
		}
		return nil, newError(KindInvalidData, "no FVE metadata blocks found")
	}
	return best, nil
}

// FVEKEntry returns the first full-volume-encryption-key metadata
// entry. Its encryption method is inside the encrypted payload, so the
// cross-check against the property entry happens in UnlockFVEK.
func (b *Block) FVEKEntry() (Entry, bool) {
	return findEntry(b.Entries, EntryTypeFullVolumeEncryptionKey)
}

// ProtectorEntries returns every volume-master-key metadata entry (the key
// protectors).
func (b *Block) ProtectorEntries() []Entry {
	return findAllEntries(b.Entries, EntryTypeVolumeMasterKey)
}

// VolumeHeaderBlockEntry returns the entry describing the relocated
// original boot sector region, if present (Windows 7+/ToGo only).
func (b *Block) VolumeHeaderBlockEntry() (Entry, bool) {
	return findEntry(b.Entries, EntryTypeVolumeHeaderBlock)
}
