// Package fhe describes the homomorphic-encryption capability the matching
// core consumes: opaque ciphertext handles, account addresses, and the
// Fabric interface that evaluates comparisons on ciphertexts.
//
// The core never sees a cleartext. Every implementation of Fabric (a remote
// coprocessor in production, simfhe in development and tests) is an
// external collaborator.
package fhe

import (
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Kind is the encrypted type carried by a handle. Values follow the tags
// used by fhEVM-style coprocessors.
type Kind uint8

const (
	KindBool   Kind = 0
	KindUint16 Kind = 3
	KindUint32 Kind = 4
	KindUint64 Kind = 5
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "ebool"
	case KindUint16:
		return "euint16"
	case KindUint32:
		return "euint32"
	case KindUint64:
		return "euint64"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Max returns the largest cleartext the kind can hold.
func (k Kind) Max() uint64 {
	switch k {
	case KindBool:
		return 1
	case KindUint16:
		return 1<<16 - 1
	case KindUint32:
		return 1<<32 - 1
	default:
		return 1<<64 - 1
	}
}

// HandleSize is the byte length of a ciphertext handle.
const HandleSize = 32

// Handle is an opaque reference to a ciphertext. The last byte carries the
// Kind; the rest is chosen by the fabric. The zero Handle is the
// uninitialized ciphertext.
type Handle [HandleSize]byte

var ErrMalformedHandle = errors.New("malformed handle")

// NewHandle builds a handle from 31 bytes of identity and a kind tag.
func NewHandle(id []byte, kind Kind) Handle {
	var h Handle
	copy(h[:HandleSize-1], id)
	h[HandleSize-1] = byte(kind)
	return h
}

// ParseHandle decodes the 0x-prefixed hex form produced by String.
func ParseHandle(s string) (Handle, error) {
	var h Handle
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil || len(raw) != HandleSize {
		return h, fmt.Errorf("%w: %q", ErrMalformedHandle, s)
	}
	copy(h[:], raw)
	return h, nil
}

func (h Handle) Kind() Kind { return Kind(h[HandleSize-1]) }

func (h Handle) IsZero() bool { return h == Handle{} }

func (h Handle) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Handle) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Handle) UnmarshalText(b []byte) error {
	parsed, err := ParseHandle(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Value stores the handle as raw bytes (bytea).
func (h Handle) Value() (driver.Value, error) { return h[:], nil }

// Scan reads a handle stored by Value.
func (h *Handle) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		if len(v) != HandleSize {
			return fmt.Errorf("%w: %d bytes", ErrMalformedHandle, len(v))
		}
		copy(h[:], v)
		return nil
	case string:
		parsed, err := ParseHandle(v)
		if err != nil {
			return err
		}
		*h = parsed
		return nil
	case nil:
		*h = Handle{}
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrMalformedHandle, src)
	}
}
