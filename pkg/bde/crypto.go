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
	"crypto/sha256"
	"crypto/subtle"
)

// newAESBlock constructs an AES cipher.Block, wrapping key-size errors
// with the project's error type.
func newAESBlock(key []byte) (cipher.Block, error) {
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, err, "aes key")
	}
	return b, nil
}

// aesECBEncryptBlock encrypts a single 16-byte block with AES-ECB. BDE
// uses this only to derive per-sector IVs from the FVEK (spec.md §4.G);
// it is never used to encrypt more than one block at a time, so the
// well-known ECB weaknesses (pattern leakage across blocks) do not
// apply here.
func aesECBEncryptBlock(key, block []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, err, "aes key")
	}
	out := make([]byte, aes.BlockSize)
	c.Encrypt(out, block)
	return out, nil
}

const (
	stretchStateSize   = 88
	stretchHashSize    = 32
	stretchLastHashOff = 0
	stretchInitHashOff = stretchHashSize                       // 32
	stretchSaltOffset  = stretchInitHashOff + stretchHashSize  // 64
	stretchSaltSize    = 16
	stretchCounterOff  = stretchSaltOffset + stretchSaltSize   // 80
	stretchCounterSize = 8
	stretchIterations  = 1 << 20
)

// StretchKey runs BitLocker's password/recovery-password key
// stretching: SHA-256 over an evolving 88-byte state, 2^20 times
// (spec.md §4.F "stretch key"). The state layout is
// last-hash(32) || initial-hash(32) || salt(16) || counter(8): the
// initial hash and salt are fixed for the whole run (inputKey seeds
// both the initial and, for round zero, the last hash field), and
// each round replaces the last-hash field with SHA-256 of the whole
// state and increments the counter.
//
// abort, if non-nil, is polled every 4096 iterations so a long-running
// stretch can be cancelled without checking it on every round.
func StretchKey(inputKey, salt []byte, abort <-chan struct{}) ([]byte, error) {
	if len(inputKey) != stretchHashSize {
		return nil, newError(KindInvalidArgument, "stretch input key must be %d bytes, got %d", stretchHashSize, len(inputKey))
	}
	if len(salt) != stretchSaltSize {
		return nil, newError(KindInvalidArgument, "stretch salt must be %d bytes, got %d", stretchSaltSize, len(salt))
	}

	state := make([]byte, stretchStateSize)
	copy(state[stretchLastHashOff:stretchLastHashOff+stretchHashSize], inputKey)
	copy(state[stretchInitHashOff:stretchInitHashOff+stretchHashSize], inputKey)
	copy(state[stretchSaltOffset:stretchSaltOffset+stretchSaltSize], salt)

	for i := uint64(0); i < stretchIterations; i++ {
		if abort != nil && i%4096 == 0 {
			select {
			case <-abort:
				return nil, newError(KindAbortRequested, "key stretch aborted at iteration %d", i)
			default:
			}
		}
		sum := sha256.Sum256(state)
		copy(state[stretchLastHashOff:stretchLastHashOff+stretchHashSize], sum[:])
		counter := i + 1
		for b := 0; b < stretchCounterSize; b++ {
			state[stretchCounterOff+b] = byte(counter)
			counter >>= 8
		}
	}

	out := make([]byte, stretchHashSize)
	copy(out, state[stretchLastHashOff:stretchLastHashOff+stretchHashSize])
	return out, nil
}

// constantTimeEqual reports whether a and b are equal, in time
// independent of where they first differ.
func constantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}
