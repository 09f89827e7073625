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

// Observer receives diagnostic events from a Volume as it opens,
// parses metadata, and unlocks (spec.md §6 "External Interfaces").
// internal/bdelog adapts the project's own logger and log/slog onto
// this capability; callers may also implement it directly.
type Observer interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// nopObserver discards every event; the default when OpenOptions
// leaves Observer nil.
type nopObserver struct{}

func (nopObserver) Debugf(string, ...any) {}
func (nopObserver) Infof(string, ...any)  {}
func (nopObserver) Warnf(string, ...any)  {}
func (nopObserver) Errorf(string, ...any) {}

// NopObserver returns an Observer that discards every event.
func NopObserver() Observer { return nopObserver{} }
