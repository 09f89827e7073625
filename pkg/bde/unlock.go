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

import "crypto/sha256"

// nonceSize is the length of the nonce each AES-CCM-wrapped value is
// prefixed with, before its ciphertext+tag (spec.md §4.F).
const nonceSize = ccmNonceSize

// vmkSize is the length of an unwrapped volume master key.
const vmkSize = 32

// unwrapCCM splits e's payload into its leading nonce and trailing
// ccm ciphertext+tag, and decrypts it under key.
func unwrapCCM(key []byte, e Entry) ([]byte, error) {
	if len(e.Data) < nonceSize {
		return nil, newError(KindInvalidData, "aes-ccm entry payload shorter than nonce: %d bytes", len(e.Data))
	}
	nonce := e.Data[:nonceSize]
	ciphertext := e.Data[nonceSize:]
	return ccmDecrypt(key, nonce, ciphertext)
}

// unwrapKeyForProtector derives the AES key used to unwrap p's VMK,
// given whichever credential in opts applies to p's protection type.
// Returns KindValueMissing when opts supplies nothing usable for p.
func unwrapKeyForProtector(p *Protector, opts UnlockOptions, abort <-chan struct{}) ([]byte, error) {
	switch p.Type {
	case ProtectionTypeClearKey:
		ext, ok := p.ExternalKey()
		if !ok {
			return nil, newError(KindInvalidData, "clear-key protector %s has no external-key entry", p.GUID)
		}
		return ext.Data, nil

	case ProtectionTypeStartupKey, ProtectionTypeAutoUnlock:
		if opts.ExternalKey == nil {
			return nil, newError(KindValueMissing, "protector %s needs an external key", p.GUID)
		}
		return opts.ExternalKey, nil

	case ProtectionTypeRecoveryPassword:
		if opts.RecoveryPassword == "" {
			return nil, newError(KindValueMissing, "protector %s needs a recovery password", p.GUID)
		}
		raw, err := ParseRecoveryPassword(opts.RecoveryPassword)
		if err != nil {
			return nil, err
		}
		return stretchForProtector(p, raw, abort)

	case ProtectionTypePassword:
		if opts.Password == "" {
			return nil, newError(KindValueMissing, "protector %s needs a password", p.GUID)
		}
		raw := encodeUTF16LE(opts.Password)
		return stretchForProtector(p, raw, abort)

	default:
		return nil, newError(KindUnsupported, "protector %s has unsupported protection type %s", p.GUID, p.Type)
	}
}

// stretchForProtector hashes raw input material (a recovery key or a
// UTF-16LE password) down to the 32-byte stretch seed and runs it
// through StretchKey using p's stretch-key salt.
func stretchForProtector(p *Protector, raw []byte, abort <-chan struct{}) ([]byte, error) {
	stretchEntry, ok := p.StretchKey()
	if !ok {
		return nil, newError(KindInvalidData, "protector %s has no stretch-key entry", p.GUID)
	}
	salt, err := stretchSalt(stretchEntry)
	if err != nil {
		return nil, err
	}
	seed := sha256.Sum256(raw)
	return StretchKey(seed[:], salt, abort)
}

// UnlockVMK tries every applicable credential in opts against every
// protector in block, in protector order, and returns the first
// successfully unwrapped volume master key. A protector whose
// credential is missing or whose CCM tag fails to verify is skipped,
// not fatal (spec.md §4.F "unlock ordering").
func UnlockVMK(block *Block, opts UnlockOptions, abort <-chan struct{}) ([]byte, *Protector, error) {
	protectors, _ := ParseProtectors(block)
	if len(protectors) == 0 {
		return nil, nil, newError(KindValueMissing, "metadata block has no key protectors")
	}

	var lastErr error
	for _, p := range protectors {
		key, err := unwrapKeyForProtector(p, opts, abort)
		if err != nil {
			lastErr = err
			continue
		}
		wrapped, ok := p.EncryptedKey()
		if !ok {
			lastErr = newError(KindInvalidData, "protector %s has no aes-ccm-encrypted entry", p.GUID)
			continue
		}
		vmk, err := unwrapCCM(key, wrapped)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vmk) < vmkSize {
			lastErr = newError(KindInvalidData, "protector %s: unwrapped vmk too short: %d bytes", p.GUID, len(vmk))
			continue
		}
		return vmk[:vmkSize], p, nil
	}

	if lastErr == nil {
		lastErr = newError(KindUnlockFailed, "no protector matched the supplied credentials")
	}
	return nil, nil, wrapError(KindUnlockFailed, lastErr, "volume unlock failed")
}

// UnlockFVEK unwraps the volume's FVEK using an already-unwrapped VMK,
// and returns it alongside the encryption method to decode sectors
// with (spec.md §4.F "FVEK unwrap"). The CCM-decrypted payload is
// itself { encryption-method: u16, key-bytes } (spec.md §3 "FVEK
// entry"); that leading method is cross-checked against the block's
// property entry rather than trusting either one alone.
func UnlockFVEK(block *Block, vmk []byte) ([]byte, EncryptionMethod, error) {
	entry, ok := block.FVEKEntry()
	if !ok {
		return nil, 0, newError(KindValueMissing, "metadata block has no full-volume-encryption-key entry")
	}
	decrypted, err := unwrapCCM(vmk, entry)
	if err != nil {
		return nil, 0, wrapError(KindUnlockFailed, err, "fvek unwrap")
	}
	if len(decrypted) < 2 {
		return nil, 0, newError(KindInvalidData, "fvek entry payload too short for encryption-method field: %d bytes", len(decrypted))
	}
	methodField, err := newByteReader(decrypted).u16()
	if err != nil {
		return nil, 0, err
	}
	method := EncryptionMethod(methodField)
	fvek := decrypted[2:]

	if propMethod, err := encryptionMethodOf(block); err == nil && propMethod != method {
		return nil, 0, newError(KindInvalidData, "fvek encryption method 0x%04x disagrees with property entry 0x%04x", uint32(method), uint32(propMethod))
	}

	want, err := method.fvekSize()
	if err != nil {
		return nil, 0, err
	}
	if len(fvek) < want {
		return nil, 0, newError(KindInvalidData, "fvek too short for %s: got %d, want %d", method, len(fvek), want)
	}
	return fvek[:want], method, nil
}

// encryptionMethodOf reads the block's property entry, whose payload
// begins with the little-endian uint32 encryption method. Used only to
// cross-check the method carried in the FVEK entry's own payload.
func encryptionMethodOf(block *Block) (EncryptionMethod, error) {
	prop, ok := findEntry(block.Entries, EntryTypeProperty)
	if !ok {
		return 0, newError(KindValueMissing, "metadata block has no property entry")
	}
	if len(prop.Data) < 4 {
		return 0, newError(KindInvalidData, "property entry payload too short: %d bytes", len(prop.Data))
	}
	r := newByteReader(prop.Data)
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return EncryptionMethod(v), nil
}
