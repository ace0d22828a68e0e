package fhe

import (
	"context"
	"errors"
)

var (
	ErrUnknownHandle = errors.New("unknown ciphertext handle")
	ErrKindMismatch  = errors.New("ciphertext kind mismatch")
	ErrOutOfRange    = errors.New("value out of range for kind")
)

// InputBundle is what a client produces when it encrypts values for the
// matching contract: one handle per value plus a single proof binding all of
// them to (contract, caller).
type InputBundle struct {
	Handles []Handle
	Proof   []byte
}

// Fabric is the homomorphic capability consumed by the core.
//
// Scalar comparisons take a plaintext right-hand side; results are KindBool
// handles. Implementations must not branch on cleartext values in a way
// observable to the caller.
type Fabric interface {
	// FromExternal verifies proof over inputs for (contract, caller) and
	// returns handles usable in computation. kinds lists the expected kind
	// of each input. A failed verification wraps
	// common.ErrorInvalidInputProof.
	FromExternal(ctx context.Context, contract, caller Address, inputs []Handle, kinds []Kind, proof []byte) ([]Handle, error)

	// TrivialBool returns a handle encrypting the constant v.
	TrivialBool(ctx context.Context, v bool) (Handle, error)

	EqScalar(ctx context.Context, a Handle, v uint64) (Handle, error)
	GeScalar(ctx context.Context, a Handle, v uint64) (Handle, error)
	LeScalar(ctx context.Context, a Handle, v uint64) (Handle, error)
	And(ctx context.Context, a, b Handle) (Handle, error)
}

// AccessList answers whether account may decrypt h. The matching core owns
// the grants; decryption gateways consult it.
type AccessList interface {
	IsAllowed(ctx context.Context, h Handle, account Address) (bool, error)
}

// Decrypter is the decryption gateway seen from a client. It fails with
// common.ErrorUnauthorized when account holds no grant for h.
type Decrypter interface {
	Decrypt(ctx context.Context, h Handle, account Address) (uint64, error)
}
