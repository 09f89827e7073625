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

// BEK holds the external key material extracted from a .BEK startup
// key file, as written to a USB key by BitLocker setup (spec.md's
// supplemented "external key" source; see original_source's BEK
// container handling). The file is itself laid out as a single FVE
// metadata block containing a startup-key entry, not as a full volume.
type BEK struct {
	VolumeGUID GUID
	Entries    []Entry
}

// ParseBEK decodes the contents of a .BEK file, previously read fully
// into memory by the caller.
func ParseBEK(data []byte) (*BEK, error) {
	src := NewMemorySource(data)
	block, err := ParseBlock(src, 0)
	if err != nil {
		return nil, wrapError(KindInvalidData, err, "parse .BEK container")
	}
	return &BEK{VolumeGUID: block.VolumeGUID, Entries: block.Entries}, nil
}

// ExternalKey returns the raw external key bytes carried by the
// startup-key entry, used directly as a protector's unwrap key without
// any password stretch.
func (b *BEK) ExternalKey() ([]byte, error) {
	startup, ok := findEntry(b.Entries, EntryTypeStartupKey)
	if !ok {
		return nil, newError(KindValueMissing, ".BEK container has no startup-key entry")
	}
	if len(startup.Data) < protectorHeaderSize {
		return nil, newError(KindInvalidData, "startup-key entry payload truncated: %d bytes", len(startup.Data))
	}
	nested, err := parseEntries(startup.Data[protectorHeaderSize:])
	if err != nil {
		return nil, wrapError(KindInvalidData, err, "startup-key entry nested entries")
	}
	ext, ok := findValue(nested, ValueTypeExternalKey)
	if !ok {
		return nil, newError(KindValueMissing, ".BEK startup-key entry has no external-key value")
	}
	return ext.Data, nil
}
