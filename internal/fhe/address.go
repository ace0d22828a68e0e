package fhe

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Address identifies an account (or the matching contract itself): 20 bytes
// rendered as lowercase 0x-prefixed hex.
type Address string

var ErrMalformedAddress = errors.New("malformed address")

// ParseAddress validates s and returns its canonical lowercase form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 40 {
		return "", fmt.Errorf("%w: %q", ErrMalformedAddress, s)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedAddress, s)
	}
	return Address("0x" + strings.ToLower(raw)), nil
}

// MustAddress is ParseAddress for constants and tests.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }

func (a Address) Bytes() []byte {
	b, _ := hex.DecodeString(strings.TrimPrefix(string(a), "0x"))
	return b
}
