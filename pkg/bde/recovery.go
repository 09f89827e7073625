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
	"strconv"
	"strings"
)

// recoveryGroupCount is the count of 6-digit groups in a formatted
// recovery password (spec.md §3 "48-digit recovery password"):
// 8 groups of 6 digits, the last digit of each group a check digit
// over the preceding 5, each 5-digit value a multiple of 11 and
// no larger than 720896 (2^16 * 11).
const (
	recoveryGroupCount    = 8
	recoveryGroupDigits   = 6
	recoveryGroupMaxValue = 720896
	recoveryGroupDivisor  = 11
)

// ParseRecoveryPassword validates and decodes a 48-digit recovery
// password (either "XXXXXX-XXXXXX-...-XXXXXX" or 48 bare digits) into
// the 16-byte key (8 little-endian uint16 words) BitLocker derives from it
// (spec.md §4.F). Returns KindInvalidArgument on a malformed or
// check-digit-failing password.
func ParseRecoveryPassword(s string) ([]byte, error) {
	groups, err := splitRecoveryGroups(s)
	if err != nil {
		return nil, err
	}

	key := make([]byte, recoveryGroupCount*2)
	for i, g := range groups {
		value, err := validateRecoveryGroup(g)
		if err != nil {
			return nil, wrapError(KindInvalidArgument, err, "recovery password group %d", i+1)
		}
		binary.LittleEndian.PutUint16(key[i*2:], uint16(value))
	}
	return key, nil
}

// FormatRecoveryPassword renders a 16-byte intermediate key (8
// little-endian uint16 words) back into the dashed 48-digit form.
func FormatRecoveryPassword(key []byte) (string, error) {
	if len(key) != recoveryGroupCount*2 {
		return "", newError(KindInvalidArgument, "recovery key must be %d bytes, got %d", recoveryGroupCount*2, len(key))
	}
	groups := make([]string, recoveryGroupCount)
	for i := 0; i < recoveryGroupCount; i++ {
		word := binary.LittleEndian.Uint16(key[i*2:])
		value := uint32(word) * recoveryGroupDivisor
		check := recoveryCheckDigit(value)
		groups[i] = fmt.Sprintf("%05d%d", value, check)
	}
	return strings.Join(groups, "-"), nil
}

func splitRecoveryGroups(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	var digits string
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != recoveryGroupCount {
			return nil, newError(KindInvalidArgument, "recovery password must have %d groups, got %d", recoveryGroupCount, len(parts))
		}
		groups := make([]string, recoveryGroupCount)
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if len(p) != recoveryGroupDigits {
				return nil, newError(KindInvalidArgument, "recovery password group %d must be %d digits, got %d", i+1, recoveryGroupDigits, len(p))
			}
			groups[i] = p
		}
		return groups, nil
	}

	digits = s
	if len(digits) != recoveryGroupCount*recoveryGroupDigits {
		return nil, newError(KindInvalidArgument, "recovery password must be %d digits, got %d", recoveryGroupCount*recoveryGroupDigits, len(digits))
	}
	groups := make([]string, recoveryGroupCount)
	for i := range groups {
		groups[i] = digits[i*recoveryGroupDigits : (i+1)*recoveryGroupDigits]
	}
	return groups, nil
}

// validateRecoveryGroup parses one 6-digit group, checks its trailing
// check digit, and returns value/11 (the 16-bit word it encodes).
func validateRecoveryGroup(g string) (uint16, error) {
	if len(g) != recoveryGroupDigits {
		return 0, newError(KindInvalidArgument, "group must be %d digits", recoveryGroupDigits)
	}
	for _, c := range g {
		if c < '0' || c > '9' {
			return 0, newError(KindInvalidArgument, "group contains non-digit %q", c)
		}
	}
	value, err := strconv.ParseUint(g[:5], 10, 32)
	if err != nil {
		return 0, newError(KindInvalidArgument, "group value unparsable: %v", err)
	}
	check, err := strconv.ParseUint(g[5:], 10, 32)
	if err != nil {
		return 0, newError(KindInvalidArgument, "check digit unparsable: %v", err)
	}

	if value > recoveryGroupMaxValue {
		return 0, newError(KindInvalidArgument, "group value %d exceeds maximum %d", value, recoveryGroupMaxValue)
	}
	if value%recoveryGroupDivisor != 0 {
		return 0, newError(KindInvalidArgument, "group value %d not a multiple of %d", value, recoveryGroupDivisor)
	}
	if uint64(recoveryCheckDigit(uint32(value))) != check {
		return 0, newError(KindChecksumMismatch, "check digit mismatch: want %d, got %d", recoveryCheckDigit(uint32(value)), check)
	}

	return uint16(value / recoveryGroupDivisor), nil
}

// recoveryCheckDigit computes the trailing check digit BitLocker
// appends to each 5-digit recovery password group: the digit sum of
// the 5-digit value, modulo 11, with a result of 10 represented as 0
// (the value itself is always a multiple of 11, so that congruence
// alone carries no information).
func recoveryCheckDigit(value uint32) uint32 {
	var sum uint32
	for v := value; v > 0; v /= 10 {
		sum += v % 10
	}
	d := sum % recoveryGroupDivisor
	if d == 10 {
		d = 0
	}
	return d
}
