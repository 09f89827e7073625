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

import "encoding/binary"

// Elephant diffuser rotation tables and round counts (spec.md §4.G
// "Apply Diffuser B (inverse)" / "Apply Diffuser A (inverse)"):
// diffuser A runs 5 rounds with R_a, diffuser B runs 3 rounds with
// R_b, each over the sector's 32-bit little-endian words, indexed
// modulo n = bps/4.
const (
	diffuserARounds = 5
	diffuserBRounds = 3
)

var diffuserARotation = [4]uint32{9, 0, 13, 0}
var diffuserBRotation = [4]uint32{0, 10, 0, 25}

// diffuserDecrypt reverses the Elephant diffuser over a single sector:
// diffuser B inverse, then diffuser A inverse (encryption applies A
// then B, so decryption undoes them in the opposite order). len(sector)
// must be a multiple of 4.
func diffuserDecrypt(sector []byte) error {
	words, err := bytesToWords(sector)
	if err != nil {
		return err
	}
	diffuserPassDecrypt(words, diffuserBRotation, diffuserBRounds)
	diffuserPassDecrypt(words, diffuserARotation, diffuserARounds)
	wordsToBytes(words, sector)
	return nil
}

// diffuserEncrypt applies the Elephant diffuser forward (A then B), the
// inverse of diffuserDecrypt. Used by test fixtures to build synthetic
// encrypted sectors.
func diffuserEncrypt(sector []byte) error {
	words, err := bytesToWords(sector)
	if err != nil {
		return err
	}
	diffuserPassEncrypt(words, diffuserARotation, diffuserARounds)
	diffuserPassEncrypt(words, diffuserBRotation, diffuserBRounds)
	wordsToBytes(words, sector)
	return nil
}

func bytesToWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, newError(KindInvalidArgument, "diffuser input length %d not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

func wordsToBytes(words []uint32, out []byte) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
}

func rotl32(v uint32, n uint) uint32 {
	n %= 32
	return (v << n) | (v >> (32 - n))
}

// diffuserPassDecrypt runs one diffuser's inverse transform in place,
// `rounds` times, per spec.md §4.G: for each word, descending from the
// last to the first, `w[i] -= w[i+2] ⊕ rotl(w[i+5], R[i mod 4])`
// (indices modulo n = len(words)). Because the loop walks downward, a
// reference to an index greater than i has already been updated this
// round while one less than i (reachable only by wraparound) has not —
// that mixed dependency is what diffuserPassEncrypt replays in reverse
// to invert it.
func diffuserPassDecrypt(words []uint32, rot [4]uint32, rounds int) {
	n := len(words)
	for round := 0; round < rounds; round++ {
		for i := n - 1; i >= 0; i-- {
			idx2 := (i + 2) % n
			idx5 := (i + 5) % n
			words[i] -= words[idx2] ^ rotl32(words[idx5], uint(rot[i%4]))
		}
	}
}

// diffuserPassEncrypt is the exact inverse of diffuserPassDecrypt: the
// same recurrence, walking upward instead of downward and adding
// instead of subtracting, so it retraces the dependency chain in
// reverse.
func diffuserPassEncrypt(words []uint32, rot [4]uint32, rounds int) {
	n := len(words)
	for round := 0; round < rounds; round++ {
		for i := 0; i < n; i++ {
			idx2 := (i + 2) % n
			idx5 := (i + 5) % n
			words[i] += words[idx2] ^ rotl32(words[idx5], uint(rot[i%4]))
		}
	}
}
