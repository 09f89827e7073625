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
	"crypto/aes"

	"golang.org/x/crypto/xts"
)

// xtsDecryptSector decrypts one sector in place using AES-XTS, keyed
// by a 256-bit (XTS-128) or 512-bit (XTS-256) FVEK and tweaked by the
// sector's LBA (spec.md §4.G "AES-XTS-128/256"). BitLocker does not
// use an external tweak key derivation; the sector index itself is
// the tweak's plaintext.
func xtsDecryptSector(key []byte, sectorLBA uint64, sector []byte) error {
	c, err := xts.NewCipher(aes.NewCipher, key)
	if err != nil {
		return wrapError(KindInvalidArgument, err, "xts cipher init")
	}
	out := make([]byte, len(sector))
	c.Decrypt(out, sector, sectorLBA)
	copy(sector, out)
	return nil
}

func xtsEncryptSector(key []byte, sectorLBA uint64, sector []byte) error {
	c, err := xts.NewCipher(aes.NewCipher, key)
	if err != nil {
		return wrapError(KindInvalidArgument, err, "xts cipher init")
	}
	out := make([]byte, len(sector))
	c.Encrypt(out, sector, sectorLBA)
	copy(sector, out)
	return nil
}
