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
	"context"
	"time"

	"github.com/ostafen/gobde/internal/lru"
	"github.com/ostafen/gobde/pkg/util/format"
)

const sectorCacheCapacity = 256

// Volume is a read-only view over a BitLocker-protected volume: boot
// sector, FVE metadata, and (once Unlock succeeds) decrypted sector
// access (spec.md §4.H "Volume facade"). Not safe for concurrent use
// from multiple goroutines without external synchronization.
type Volume struct {
	src      Source
	observer Observer

	header *Header
	block  *Block

	vmk       []byte
	protector *Protector
	fvek      []byte
	method    EncryptionMethod
	codec     *sectorCodec

	relocated *relocatedHeader

	cache *lru.Cache[uint64, []byte]
}

// relocatedHeader describes the original boot sector's true contents,
// preserved by a volume-header-block metadata entry on Windows
// 7+/ToGo volumes whose boot sector was overwritten by BitLocker's own
// boot code (spec.md §4.D).
type relocatedHeader struct {
	offset int64
	size   int64
}

// Open reads the volume's boot sector and the best of its three FVE
// metadata blocks from src. The returned Volume is not yet unlocked;
// call Unlock before ReadAt.
func Open(ctx context.Context, src Source, opts OpenOptions) (*Volume, error) {
	observer := opts.observer()

	header, err := ParseHeader(src)
	if err != nil {
		return nil, err
	}
	observer.Debugf("parsed %s boot sector: %d bytes/sector", header.Variant, header.BytesPerSector)

	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindAbortRequested, err, "open cancelled")
	}

	block, err := ParseBestBlock(src, header)
	if err != nil {
		return nil, err
	}
	observer.Infof("selected FVE metadata block, sequence %d, %d entries, encrypted volume size %s",
		block.SequenceNumber, len(block.Entries), format.FormatBytes(int64(block.EncryptedVolumeSize)))

	v := &Volume{
		src:      src,
		observer: observer,
		header:   header,
		block:    block,
		cache:    lru.New[uint64, []byte](sectorCacheCapacity),
	}

	if vhb, ok := block.VolumeHeaderBlockEntry(); ok {
		rh, err := parseVolumeHeaderBlockEntry(vhb)
		if err != nil {
			observer.Warnf("volume-header-block entry malformed: %v", err)
		} else {
			v.relocated = rh
		}
	}

	return v, nil
}

// Unlock derives the volume master key and FVEK from the supplied
// credentials and prepares sector decryption (spec.md §4.F). It can be
// called again with different credentials; the most recent call wins.
func (v *Volume) Unlock(ctx context.Context, opts UnlockOptions) error {
	var abort <-chan struct{}
	if ctx != nil {
		abort = ctx.Done()
	}

	vmk, protector, err := UnlockVMK(v.block, opts, abort)
	if err != nil {
		v.observer.Warnf("unlock failed: %v", err)
		return err
	}
	fvek, method, err := UnlockFVEK(v.block, vmk)
	if err != nil {
		v.observer.Warnf("fvek unwrap failed: %v", err)
		return err
	}
	codec, err := newSectorCodec(method, fvek)
	if err != nil {
		return err
	}

	v.vmk = vmk
	v.protector = protector
	v.fvek = fvek
	v.method = method
	v.codec = codec
	v.cache.Purge()

	v.observer.Infof("unlocked via protector %s (%s), encryption method %s", protector.GUID, protector.Type, method)
	return nil
}

// Locked reports whether the volume has not yet been successfully
// unlocked.
func (v *Volume) Locked() bool { return v.codec == nil }

// GUID returns the volume's GUID, as recorded in FVE metadata.
func (v *Volume) GUID() GUID { return v.block.VolumeGUID }

// CreationTime returns the volume's encryption creation time.
func (v *Volume) CreationTime() time.Time { return v.block.CreationTime }

// Description returns the volume's user-assigned description, if any.
func (v *Volume) Description() string { return v.block.Description }

// EncryptionMethod returns the volume's sector cipher, valid only
// after a successful Unlock.
func (v *Volume) EncryptionMethod() (EncryptionMethod, error) {
	if v.Locked() {
		return 0, newError(KindValueMissing, "volume is locked")
	}
	return v.method, nil
}

// Protectors returns every key protector found in FVE metadata,
// regardless of whether the volume is unlocked.
func (v *Volume) Protectors() []*Protector {
	protectors, _ := ParseProtectors(v.block)
	return protectors
}

// Size returns the logical size of the encrypted volume in bytes.
func (v *Volume) Size() int64 {
	return int64(v.block.EncryptedVolumeSize)
}

const bdeSectorSize = 512

// ReadAt decrypts len(p) bytes starting at byte offset off into the
// logical (decrypted) volume, satisfying io.ReaderAt (spec.md §4.H).
// The volume must be unlocked first.
func (v *Volume) ReadAt(p []byte, off int64) (int, error) {
	if v.Locked() {
		return 0, newError(KindValueMissing, "volume is locked")
	}
	if off < 0 {
		return 0, newError(KindInvalidArgument, "negative offset %d", off)
	}

	total := 0
	for total < len(p) {
		pos := off + int64(total)
		lba := uint64(pos / bdeSectorSize)
		sectorOff := int(pos % bdeSectorSize)

		sector, err := v.decryptedSector(lba)
		if err != nil {
			return total, err
		}

		n := copy(p[total:], sector[sectorOff:])
		total += n
	}
	return total, nil
}

func (v *Volume) decryptedSector(lba uint64) ([]byte, error) {
	if cached, ok := v.cache.Get(lba); ok {
		return cached, nil
	}

	pos := int64(lba) * bdeSectorSize

	// The leading sectors of a Windows 7+/ToGo volume hold BitLocker's
	// own boot code, not encrypted filesystem data; the true original
	// bytes for that range are preserved verbatim at v.relocated.offset
	// and need no decryption.
	if v.relocated != nil && pos < v.relocated.size {
		raw := make([]byte, bdeSectorSize)
		if _, err := readFull(v.src, v.relocated.offset+pos, raw); err != nil {
			return nil, err
		}
		v.cache.Put(lba, raw)
		return raw, nil
	}

	raw := make([]byte, bdeSectorSize)
	if _, err := readFull(v.src, pos, raw); err != nil {
		return nil, err
	}
	if err := v.codec.DecryptSector(lba, raw); err != nil {
		return nil, wrapError(KindUnlockFailed, err, "decrypt sector %d", lba)
	}

	v.cache.Put(lba, raw)
	return raw, nil
}

// parseVolumeHeaderBlockEntry decodes a volume-header-block entry's
// offset-and-size payload: two little-endian uint64 fields.
func parseVolumeHeaderBlockEntry(e Entry) (*relocatedHeader, error) {
	r := newByteReader(e.Data)
	off, err := r.u64()
	if err != nil {
		return nil, err
	}
	size, err := r.u64()
	if err != nil {
		return nil, err
	}
	return &relocatedHeader{offset: int64(off), size: int64(size)}, nil
}
