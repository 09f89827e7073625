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

// Package bdetest builds synthetic, in-memory BitLocker volume images for
// use in pkg/bde's own tests. It encodes the same on-disk structures
// pkg/bde decodes, deliberately written independently of the parser so a
// bug in one side is unlikely to be masked by a matching bug in the other.
package bdetest

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"
)

// Entry is a builder-side mirror of bde.Entry, free of the parser's
// internal types, so callers can describe a metadata entry by value.
type Entry struct {
	Type    uint16
	Value   uint16
	Version uint16
	Data    []byte
}

// Encode serializes a sequence of entries back-to-back, the layout
// bde.parseEntries expects.
func Encode(entries []Entry) []byte {
	var out []byte
	for _, e := range entries {
		size := uint16(8 + len(e.Data))
		head := make([]byte, 8)
		binary.LittleEndian.PutUint16(head[0:2], size)
		binary.LittleEndian.PutUint16(head[2:4], e.Type)
		binary.LittleEndian.PutUint16(head[4:6], e.Value)
		binary.LittleEndian.PutUint16(head[6:8], e.Version)
		out = append(out, head...)
		out = append(out, e.Data...)
	}
	return out
}

// PropertyEntry builds the property entry whose payload begins with the
// little-endian uint32 encryption method.
func PropertyEntry(encryptionMethod uint32) Entry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, encryptionMethod)
	return Entry{Type: 0x0000, Value: 0x0002, Data: data}
}

// FVEKEntry builds the full-volume-encryption-key entry: a 12-byte
// nonce followed by AES-CCM(vmk, method∥fvek). The CCM-protected
// payload itself carries the little-endian uint16 encryption method
// ahead of the key bytes, per spec.md §3's FVEK entry layout.
func FVEKEntry(method uint16, vmk, fvek []byte) (Entry, error) {
	plaintext := make([]byte, 2+len(fvek))
	binary.LittleEndian.PutUint16(plaintext[:2], method)
	copy(plaintext[2:], fvek)

	nonce := randomBytes(12)
	ct, err := ccmSeal(vmk, nonce, plaintext)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Type: 0x0003, Value: 0x0005, Data: append(nonce, ct...)}, nil
}

// VolumeHeaderBlockEntry builds the entry pointing at the relocated
// original boot sector region.
func VolumeHeaderBlockEntry(offset, size uint64) Entry {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data[0:8], offset)
	binary.LittleEndian.PutUint64(data[8:16], size)
	return Entry{Type: 0x000f, Value: 0x000f, Data: data}
}

// ClearKeyProtector builds a clear-key volume-master-key entry wrapping
// vmk under a literal, unstretched key (BitLocker's "no protector"
// configuration, used heavily by test images).
func ClearKeyProtector(guid [16]byte, clearKey, vmk []byte) (Entry, error) {
	nonce := randomBytes(12)
	ct, err := ccmSeal(clearKey, nonce, vmk)
	if err != nil {
		return Entry{}, err
	}
	payload := protectorHeader(guid, 0x0000)
	payload = append(payload, Encode([]Entry{
		{Type: 0x0000, Value: 0x0009, Data: clearKey},
		{Type: 0x0000, Value: 0x0005, Data: append(nonce, ct...)},
	})...)
	return Entry{Type: 0x0002, Value: 0x0008, Data: payload}, nil
}

// RecoveryPasswordProtector builds a recovery-password volume-master-key
// entry: a stretch-key salt plus the CCM-wrapped VMK under
// StretchKey(sha256(recoveryKey), salt).
func RecoveryPasswordProtector(guid [16]byte, salt, stretchedKey, vmk []byte) (Entry, error) {
	nonce := randomBytes(12)
	ct, err := ccmSeal(stretchedKey, nonce, vmk)
	if err != nil {
		return Entry{}, err
	}
	stretchPayload := make([]byte, 4+len(salt))
	copy(stretchPayload[4:], salt)

	payload := protectorHeader(guid, 0x0800)
	payload = append(payload, Encode([]Entry{
		{Type: 0x0000, Value: 0x0003, Data: stretchPayload},
		{Type: 0x0000, Value: 0x0005, Data: append(nonce, ct...)},
	})...)
	return Entry{Type: 0x0002, Value: 0x0008, Data: payload}, nil
}

func protectorHeader(guid [16]byte, protectionType uint16) []byte {
	h := make([]byte, 16+8+2+2)
	copy(h[:16], guid[:])
	binary.LittleEndian.PutUint16(h[24:26], protectionType)
	return h
}

// Block builds a complete FVE metadata block: the 164-byte header
// followed by entries.
func Block(volumeGUID [16]byte, sequenceNumber, encryptedVolumeSize uint64, entries []Entry) []byte {
	body := Encode(entries)
	size := uint32(164 + len(body))

	head := make([]byte, 64)
	copy(head[0:8], []byte("-FVE-FS-"))
	binary.LittleEndian.PutUint32(head[8:12], size)
	binary.LittleEndian.PutUint16(head[12:14], 2) // version
	copy(head[16:32], volumeGUID[:])
	binary.LittleEndian.PutUint64(head[32:40], sequenceNumber)
	binary.LittleEndian.PutUint64(head[40:48], encryptedVolumeSize)

	inner := make([]byte, 100)
	copy(inner[0:16], volumeGUID[:])

	out := append(head, inner...)
	out = append(out, body...)
	return out
}

// VistaBootSector builds a 512-byte Vista-variant boot sector with the
// given bytes-per-sector and three redundant FVE block offsets.
func VistaBootSector(bytesPerSector uint16, fveOffsets [3]uint64) []byte {
	buf := make([]byte, 512)
	copy(buf[3:11], []byte("-FVE-FS-"))
	binary.LittleEndian.PutUint16(buf[11:13], bytesPerSector)
	for i, off := range fveOffsets {
		binary.LittleEndian.PutUint64(buf[0x1A8+i*8:], off)
	}
	return buf
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("bdetest: rand.Read failed: " + err.Error())
	}
	return b
}

// ccmSeal is a minimal, independent AES-CCM(L=3,M=16) encryption used
// only to build fixtures; it deliberately does not call into pkg/bde's
// own ccm.go so a symmetric bug there cannot hide behind matching
// fixtures.
func ccmSeal(key, nonce, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	b0 := make([]byte, aes.BlockSize)
	b0[0] = byte((((16 - 2) / 2) << 3) | (3 - 1))
	copy(b0[1:13], nonce)
	length := len(plaintext)
	b0[13] = byte(length >> 16)
	b0[14] = byte(length >> 8)
	b0[15] = byte(length)

	mac := make([]byte, aes.BlockSize)
	block.Encrypt(mac, b0)

	buf := make([]byte, aes.BlockSize)
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		end := off + aes.BlockSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		for i := range buf {
			buf[i] = 0
		}
		copy(buf, plaintext[off:end])
		for i := range buf {
			mac[i] ^= buf[i]
		}
		block.Encrypt(mac, mac)
	}

	counterBlock := func(i uint32) []byte {
		c := make([]byte, aes.BlockSize)
		c[0] = byte(3 - 1)
		copy(c[1:13], nonce)
		c[13] = byte(i >> 16)
		c[14] = byte(i >> 8)
		c[15] = byte(i)
		return c
	}

	s0 := make([]byte, aes.BlockSize)
	block.Encrypt(s0, counterBlock(0))
	tag := make([]byte, 16)
	for i := range tag {
		tag[i] = mac[i] ^ s0[i]
	}

	out := make([]byte, len(plaintext))
	ks := make([]byte, aes.BlockSize)
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		i := uint32(off/aes.BlockSize) + 1
		block.Encrypt(ks, counterBlock(i))
		end := off + aes.BlockSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		for j := off; j < end; j++ {
			out[j] = plaintext[j] ^ ks[j-off]
		}
	}

	return append(out, tag...), nil
}

// RandomKey returns n cryptographically random bytes.
func RandomKey(n int) []byte { return randomBytes(n) }

// RandomGUID returns a random Microsoft-layout GUID.
func RandomGUID() [16]byte {
	var g [16]byte
	copy(g[:], randomBytes(16))
	return g
}
