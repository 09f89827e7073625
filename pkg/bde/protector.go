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

import "time"

// ProtectionType identifies how a volume master key protector is
// secured (spec.md §3 "key protector"). Values are the protector's
// 16-bit protection-type field, compared as a whole.
type ProtectionType uint16

const (
	ProtectionTypeClearKey            ProtectionType = 0x0000
	ProtectionTypeTPM                 ProtectionType = 0x0100
	ProtectionTypeStartupKey          ProtectionType = 0x0200
	ProtectionTypeTPMAndPIN           ProtectionType = 0x0400
	ProtectionTypeTPMAndStartupKey    ProtectionType = 0x0600
	ProtectionTypeTPMPINAndStartupKey ProtectionType = 0x0700
	ProtectionTypeRecoveryPassword    ProtectionType = 0x0800
	ProtectionTypeAutoUnlock          ProtectionType = 0x1000
	ProtectionTypePassword            ProtectionType = 0x2000
)

func (p ProtectionType) String() string {
	switch p {
	case ProtectionTypeClearKey:
		return "clear-key"
	case ProtectionTypeTPM:
		return "tpm"
	case ProtectionTypeStartupKey:
		return "startup-key"
	case ProtectionTypeTPMAndPIN:
		return "tpm-and-pin"
	case ProtectionTypeRecoveryPassword:
		return "recovery-password"
	case ProtectionTypePassword:
		return "password"
	case ProtectionTypeTPMAndStartupKey:
		return "tpm-and-startup-key"
	case ProtectionTypeTPMPINAndStartupKey:
		return "tpm-pin-and-startup-key"
	case ProtectionTypeAutoUnlock:
		return "auto-unlock"
	default:
		return "unknown"
	}
}

// protectorHeaderSize is the fixed GUID(16) + FILETIME(8) +
// protection-type(2) + reserved(2) header every volume-master-key
// entry's payload begins with, before its nested metadata entries
// (spec.md §9, see the note on entry.go's Entry).
const protectorHeaderSize = 16 + 8 + 2 + 2

// Protector is a parsed volume-master-key metadata entry: a key
// protector plus the nested entries describing how to unwrap its key
// material (spec.md §4.F).
type Protector struct {
	GUID         GUID
	CreationTime time.Time
	Type         ProtectionType
	Entries      []Entry
}

// parseProtector decodes a EntryTypeVolumeMasterKey entry's payload:
// a fixed header followed by further metadata entries (a stretch-key
// and/or an aes-ccm-encrypted key, depending on protection type).
func parseProtector(e Entry) (*Protector, error) {
	if e.Type != EntryTypeVolumeMasterKey {
		return nil, newError(KindInvalidArgument, "entry is not a volume-master-key entry: %s", e.Type)
	}
	if len(e.Data) < protectorHeaderSize {
		return nil, newError(KindInvalidData, "protector payload truncated: %d bytes", len(e.Data))
	}

	r := newByteReader(e.Data)
	guid, err := r.guid()
	if err != nil {
		return nil, err
	}
	ft, err := r.u64()
	if err != nil {
		return nil, err
	}
	ptype, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}

	rest, err := r.bytes(r.remaining())
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(rest)
	if err != nil {
		return nil, wrapError(KindInvalidData, err, "protector %s: nested entries", guid)
	}

	return &Protector{
		GUID:         guid,
		CreationTime: filetimeToTime(ft),
		Type:         ProtectionType(ptype),
		Entries:      entries,
	}, nil
}

// ParseProtectors decodes every volume-master-key entry in a metadata
// block. A single malformed protector does not fail the others.
func ParseProtectors(block *Block) ([]*Protector, []error) {
	var protectors []*Protector
	var errs []error
	for _, e := range block.ProtectorEntries() {
		p, err := parseProtector(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		protectors = append(protectors, p)
	}
	return protectors, errs
}

// StretchKey returns the protector's stretch-key entry, if any
// (present for recovery-password and password protectors).
func (p *Protector) StretchKey() (Entry, bool) {
	return findValue(p.Entries, ValueTypeStretchKey)
}

// EncryptedKey returns the protector's AES-CCM encrypted key entry.
func (p *Protector) EncryptedKey() (Entry, bool) {
	return findValue(p.Entries, ValueTypeAESCCMEncrypted)
}

// ExternalKey returns the protector's raw external key entry (used by
// clear-key and startup-key/.BEK protectors, which wrap the VMK
// without a password stretch).
func (p *Protector) ExternalKey() (Entry, bool) {
	return findValue(p.Entries, ValueTypeExternalKey)
}

// stretchKeySaltSize is the salt length carried in a ValueTypeStretchKey
// payload, which is laid out as encryption-type(4) || salt(16).
const stretchKeySaltSize = 16

// stretchSalt extracts the salt from a protector's stretch-key entry.
func stretchSalt(e Entry) ([]byte, error) {
	if len(e.Data) < 4+stretchKeySaltSize {
		return nil, newError(KindInvalidData, "stretch-key payload truncated: %d bytes", len(e.Data))
	}
	return e.Data[4 : 4+stretchKeySaltSize], nil
}
