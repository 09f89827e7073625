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
	"crypto/cipher"
)

// BitLocker wraps its VMK and FVEK with AES-CCM using fixed parameters
// L=3 (3-byte length field, 12-byte nonce) and M=16 (full-block tag,
// spec.md §4.F "AES-CCM-encrypted sub-entries"). No library in the
// example corpus exposes CCM (crypto/cipher's own implementation is
// unexported, used only internally for TLS 1.3), so this builds it
// directly on crypto/aes the way the corpus's own GCM implementation
// builds GCM directly on crypto/aes.
const (
	ccmL         = 3
	ccmM         = 16
	ccmNonceSize = 16 - 1 - ccmL // 12
)

// ccmDecrypt authenticates and decrypts ciphertext (which must include
// the trailing M-byte tag) under key and nonce, returning the
// plaintext. A tag mismatch is reported as KindUnlockFailed: in every
// caller this runs against a key candidate derived from a password or
// recovery key, so a CCM failure means "wrong key", not "corrupt data".
func ccmDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != ccmNonceSize {
		return nil, newError(KindInvalidArgument, "ccm nonce must be %d bytes, got %d", ccmNonceSize, len(nonce))
	}
	if len(ciphertext) < ccmM {
		return nil, newError(KindInvalidData, "ccm ciphertext too short for tag: %d bytes", len(ciphertext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, err, "ccm key")
	}

	payload := ciphertext[:len(ciphertext)-ccmM]
	tag := ciphertext[len(ciphertext)-ccmM:]

	plain := make([]byte, len(payload))
	if err := ccmCTR(block, nonce, payload, plain); err != nil {
		return nil, err
	}

	computedTag, err := ccmTag(block, nonce, plain)
	if err != nil {
		return nil, err
	}
	if !constantTimeEqual(computedTag, tag) {
		return nil, newError(KindUnlockFailed, "ccm tag mismatch")
	}
	return plain, nil
}

// ccmEncrypt produces ciphertext||tag for plaintext under key and
// nonce, used by test fixtures to build synthetic protector payloads.
func ccmEncrypt(key, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != ccmNonceSize {
		return nil, newError(KindInvalidArgument, "ccm nonce must be %d bytes, got %d", ccmNonceSize, len(nonce))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, err, "ccm key")
	}

	tag, err := ccmTag(block, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(plaintext)+ccmM)
	if err := ccmCTR(block, nonce, plaintext, out[:len(plaintext)]); err != nil {
		return nil, err
	}
	copy(out[len(plaintext):], tag)
	return out, nil
}

// ccmCounterBlock builds counter block i: flags(L-1) || nonce || i as a
// ccmL-byte big-endian tail.
func ccmCounterBlock(nonce []byte, i uint32) []byte {
	b := make([]byte, aes.BlockSize)
	b[0] = byte(ccmL - 1)
	copy(b[1:1+ccmNonceSize], nonce)
	b[13] = byte(i >> 16)
	b[14] = byte(i >> 8)
	b[15] = byte(i)
	return b
}

// ccmCTR XORs in into out using the CCM counter-mode keystream,
// counters starting at 1 (counter 0 is reserved for masking the MAC).
func ccmCTR(block cipher.Block, nonce, in, out []byte) error {
	if len(out) < len(in) {
		return newError(KindInvalidArgument, "ccm ctr output buffer too small")
	}
	ks := make([]byte, aes.BlockSize)
	for off := 0; off < len(in); off += aes.BlockSize {
		i := uint32(off/aes.BlockSize) + 1
		ctr := ccmCounterBlock(nonce, i)
		block.Encrypt(ks, ctr)
		end := off + aes.BlockSize
		if end > len(in) {
			end = len(in)
		}
		for j := off; j < end; j++ {
			out[j] = in[j] ^ ks[j-off]
		}
	}
	return nil
}

// ccmTag computes the CBC-MAC over B0 (flags/nonce/length) followed by
// the zero-padded plaintext, then masks it with the S0 keystream block
// per RFC 3610.
func ccmTag(block cipher.Block, nonce, plaintext []byte) ([]byte, error) {
	b0 := make([]byte, aes.BlockSize)
	b0[0] = byte((((ccmM - 2) / 2) << 3) | (ccmL - 1))
	copy(b0[1:1+ccmNonceSize], nonce)
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

	s0 := make([]byte, aes.BlockSize)
	block.Encrypt(s0, ccmCounterBlock(nonce, 0))
	for i := range mac {
		mac[i] ^= s0[i]
	}
	return mac[:ccmM], nil
}
