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

// OpenOptions configures Volume.Open (spec.md §6). The zero value is
// valid: a nil Observer is replaced by NopObserver.
type OpenOptions struct {
	Observer Observer
}

func (o OpenOptions) observer() Observer {
	if o.Observer == nil {
		return NopObserver()
	}
	return o.Observer
}

// UnlockOptions selects which credential to try against which
// protectors in Volume.Unlock.
type UnlockOptions struct {
	// Password is a user-supplied volume password.
	Password string
	// RecoveryPassword is a 48-digit recovery password, dashed or bare.
	RecoveryPassword string
	// ExternalKey is raw external key material, typically from a .BEK
	// startup key file (see ParseBEK).
	ExternalKey []byte
}
