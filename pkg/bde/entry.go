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

// EntryType is the `type` field of a metadata entry (spec.md §3).
type EntryType uint16

const (
	EntryTypeProperty                EntryType = 0x0000
	EntryTypeVolumeMasterKey         EntryType = 0x0002
	EntryTypeFullVolumeEncryptionKey EntryType = 0x0003
	EntryTypeValidation              EntryType = 0x0004
	EntryTypeStartupKey              EntryType = 0x0006
	EntryTypeDescription             EntryType = 0x0007
	EntryTypeVolumeHeaderBlock       EntryType = 0x000f
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeProperty:
		return "property"
	case EntryTypeVolumeMasterKey:
		return "volume-master-key"
	case EntryTypeFullVolumeEncryptionKey:
		return "full-volume-encryption-key"
	case EntryTypeValidation:
		return "validation"
	case EntryTypeStartupKey:
		return "startup-key"
	case EntryTypeDescription:
		return "description"
	case EntryTypeVolumeHeaderBlock:
		return "volume-header-block"
	default:
		return "unknown"
	}
}

// ValueType is the `value_type` field of a metadata entry (spec.md §3).
type ValueType uint16

const (
	ValueTypeErased           ValueType = 0x0000
	ValueTypeKey              ValueType = 0x0001
	ValueTypeUnicodeString    ValueType = 0x0002
	ValueTypeStretchKey       ValueType = 0x0003
	ValueTypeUseKey           ValueType = 0x0004
	ValueTypeAESCCMEncrypted  ValueType = 0x0005
	ValueTypeTPMEncodedBlob   ValueType = 0x0006
	ValueTypeValidationInfo   ValueType = 0x0007
	ValueTypeVolumeMasterKey  ValueType = 0x0008
	ValueTypeExternalKey      ValueType = 0x0009
	ValueTypeUpdate           ValueType = 0x000a
	ValueTypeErrorLog         ValueType = 0x000b
	ValueTypeOffsetAndSize    ValueType = 0x000f
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeErased:
		return "erased"
	case ValueTypeKey:
		return "key"
	case ValueTypeUnicodeString:
		return "unicode-string"
	case ValueTypeStretchKey:
		return "stretch-key"
	case ValueTypeUseKey:
		return "use-key"
	case ValueTypeAESCCMEncrypted:
		return "aes-ccm-encrypted"
	case ValueTypeTPMEncodedBlob:
		return "tpm-encoded-blob"
	case ValueTypeValidationInfo:
		return "validation-info"
	case ValueTypeVolumeMasterKey:
		return "volume-master-key"
	case ValueTypeExternalKey:
		return "external-key"
	case ValueTypeUpdate:
		return "update"
	case ValueTypeErrorLog:
		return "error-log"
	case ValueTypeOffsetAndSize:
		return "offset-and-size"
	default:
		return "unknown"
	}
}

// Entry is a parsed metadata entry: the tagged header plus its raw
// payload range (kept alongside the parsed variant per spec.md §9
// "Tagged metadata entries", so unrecognized entries remain
// inspectable instead of being discarded). Entries whose value type is
// volume-master-key (protectors) carry further metadata entries inside
// Data after a fixed GUID/FILETIME/protection-type header; protector.go
// parses that header and re-invokes parseEntries on the remainder.
type Entry struct {
	Size    uint16
	Type    EntryType
	Value   ValueType
	Version uint16
	Data    []byte // raw payload, length Size-8
}

// parseEntries walks a contiguous byte range as a sequence of metadata
// entries, per spec.md §4.E "Entry parsing is iterative over the byte
// range". It stops cleanly at the end of data; a partial trailing
// entry is an error.
func parseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	off := 0
	for off < len(data) {
		remaining := data[off:]
		if len(remaining) < 8 {
			return nil, newError(KindInvalidData, "metadata entry header truncated: %d bytes left", len(remaining))
		}

		r := newByteReader(remaining)
		size, err := r.u16()
		if err != nil {
			return nil, err
		}
		if size < 8 || int(size) > len(remaining) {
			return nil, newError(KindInvalidData, "metadata entry size %d out of range (have %d)", size, len(remaining))
		}
		typ, err := r.u16()
		if err != nil {
			return nil, err
		}
		valType, err := r.u16()
		if err != nil {
			return nil, err
		}
		version, err := r.u16()
		if err != nil {
			return nil, err
		}

		payload, err := r.bytes(int(size) - 8)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Size:    size,
			Type:    EntryType(typ),
			Value:   ValueType(valType),
			Version: version,
			Data:    payload,
		})
		off += int(size)
	}
	return entries, nil
}

// findEntry returns the first entry of the given type among entries.
func findEntry(entries []Entry, t EntryType) (Entry, bool) {
	for _, e := range entries {
		if e.Type == t {
			return e, true
		}
	}
	return Entry{}, false
}

// findAllEntries returns every entry of the given type among entries.
func findAllEntries(entries []Entry, t EntryType) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// findValue returns the first entry of the given value type among
// entries (used to find a stretch-key or aes-ccm-encrypted child of a
// protector).
func findValue(entries []Entry, v ValueType) (Entry, bool) {
	for _, e := range entries {
		if e.Value == v {
			return e, true
		}
	}
	return Entry{}, false
}
