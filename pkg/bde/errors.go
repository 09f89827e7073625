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
	"errors"
	"fmt"
)

// Kind is the flat taxonomy of error conditions a caller can distinguish
// via errors.As. Parsing and unlock errors are deliberately not nested
// per protector/block — a caller only needs to know which of these
// buckets an operation failed with.
type Kind int

const (
	// KindInvalidArgument signals a caller-supplied buffer/offset/size
	// violates a stated constraint.
	KindInvalidArgument Kind = iota
	// KindSignatureMismatch signals no known BDE variant was detected.
	KindSignatureMismatch
	// KindInvalidData signals a metadata entry was malformed, had a
	// length mismatch, or an unknown required field.
	KindInvalidData
	// KindChecksumMismatch signals an FVE metadata integrity check failed.
	KindChecksumMismatch
	// KindUnlockFailed signals every protector/credential combination
	// was rejected.
	KindUnlockFailed
	// KindUnsupported signals an encryption method or protector type
	// that is recognized but not implemented (e.g. TPM).
	KindUnsupported
	// KindValueMissing signals an operation that requires the volume to
	// be unlocked was attempted before Unlock succeeded.
	KindValueMissing
	// KindReadFailed signals the byte source returned an error or a
	// short read mid-stream.
	KindReadFailed
	// KindAbortRequested signals a long-running operation (the stretch
	// loop) was cancelled by the caller.
	KindAbortRequested
	// KindValueOutOfBounds signals an offset or index fell outside the
	// addressable range of the volume.
	KindValueOutOfBounds
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindSignatureMismatch:
		return "signature_mismatch"
	case KindInvalidData:
		return "invalid_data"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindUnlockFailed:
		return "unlock_failed"
	case KindUnsupported:
		return "unsupported"
	case KindValueMissing:
		return "value_missing"
	case KindReadFailed:
		return "read_failed"
	case KindAbortRequested:
		return "abort_requested"
	case KindValueOutOfBounds:
		return "value_out_of_bounds"
	default:
		return "unknown"
	}
}

// Error is the flat error type surfaced by every exported operation:
// a Kind the caller can switch on, a short human-readable message, and
// an optional wrapped cause for errors.Unwrap/errors.Is chains.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bde: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("bde: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &bde.Error{Kind: bde.KindUnlockFailed})-style
// checks work by comparing Kind when the target is itself a *Error with
// no message and no cause set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Cause == nil && t.Message == ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf reports the Kind of err if it is (or wraps) a *Error, and
// false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
