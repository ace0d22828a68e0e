// Package cryptox holds the symmetric primitives the simulated fabric relies
// on: argon2 key derivation, keyed BLAKE2b MACs and AES-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

var ErrMACMismatch = errors.New("mac mismatch")

// DeriveMasterKey stretches a configured passphrase into a 32-byte key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// SubKey derives an independent 32-byte key for the named purpose.
func SubKey(master []byte, purpose string) []byte {
	h, _ := blake2b.New256(master)
	h.Write([]byte(purpose))
	return h.Sum(nil)
}

// MAC computes a keyed BLAKE2b-256 over the concatenation of parts, each
// prefixed by its length so part boundaries cannot be shifted.
func MAC(key []byte, parts ...[]byte) []byte {
	h, err := blake2b.New256(key)
	if err != nil {
		panic(err)
	}
	var l [4]byte
	for _, p := range parts {
		n := len(p)
		l[0], l[1], l[2], l[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
		h.Write(l[:])
		h.Write(p)
	}
	return h.Sum(nil)
}

// VerifyMAC checks tag against MAC(key, parts...) in constant time.
func VerifyMAC(key, tag []byte, parts ...[]byte) error {
	if subtle.ConstantTimeCompare(tag, MAC(key, parts...)) != 1 {
		return ErrMACMismatch
	}
	return nil
}

// EncryptEntry serializes entry to JSON and encrypts it with AES-GCM under
// key (16, 24 or 32 bytes). A fresh 12-byte nonce is returned alongside the
// ciphertext.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// DecryptEntry reverses EncryptEntry and unmarshals the JSON into v.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
