// Package simfhe is an in-process stand-in for the homomorphic coprocessor
// and its decryption gateway. Cleartexts are kept sealed with AES-GCM and only
// opened to evaluate an operator or to answer an authorized decryption.
//
// It gives the same answers a real fabric would, which makes it the oracle
// for tests, but it offers none of the cryptographic hiding. Ciphertexts are
// never evicted, so an Engine is meant for tests and development servers.
package simfhe

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/cryptox"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

const keySalt = "gophmatch/simfhe/v1"

type sealed struct {
	kind       fhe.Kind
	ciphertext []byte
	nonce      []byte
}

// Engine implements fhe.Fabric.
type Engine struct {
	mu      sync.RWMutex
	macKey  []byte
	sealKey []byte
	values  map[fhe.Handle]sealed
}

var _ fhe.Fabric = (*Engine)(nil)

// New derives the engine keys from secret. Two engines built from the same
// secret accept each other's input proofs.
func New(secret string) *Engine {
	master := cryptox.DeriveMasterKey([]byte(secret), []byte(keySalt))
	defer common.WipeByteArray(master)

	return &Engine{
		macKey:  cryptox.SubKey(master, "input-proof"),
		sealKey: cryptox.SubKey(master, "seal"),
		values:  make(map[fhe.Handle]sealed),
	}
}

// Len reports how many ciphertexts the engine holds.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.values)
}

func (e *Engine) store(kind fhe.Kind, v uint64) (fhe.Handle, error) {
	if v > kind.Max() {
		return fhe.Handle{}, fmt.Errorf("%w: %d does not fit %s", fhe.ErrOutOfRange, v, kind)
	}

	ct, nonce, err := cryptox.EncryptEntry(v, e.sealKey)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("seal: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		h := fhe.NewHandle(common.GenerateRandByteArray(fhe.HandleSize-1), kind)
		if _, taken := e.values[h]; taken {
			continue
		}
		e.values[h] = sealed{kind: kind, ciphertext: ct, nonce: nonce}
		return h, nil
	}
}

func (e *Engine) open(h fhe.Handle) (fhe.Kind, uint64, error) {
	e.mu.RLock()
	s, ok := e.values[h]
	e.mu.RUnlock()

	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", fhe.ErrUnknownHandle, h)
	}

	var v uint64
	if err := cryptox.DecryptEntry(s.ciphertext, s.nonce, e.sealKey, &v); err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", h, err)
	}
	return s.kind, v, nil
}

func (e *Engine) openBool(h fhe.Handle) (uint64, error) {
	kind, v, err := e.open(h)
	if err != nil {
		return 0, err
	}
	if kind != fhe.KindBool {
		return 0, fmt.Errorf("%w: %s is %s, want %s", fhe.ErrKindMismatch, h, kind, fhe.KindBool)
	}
	return v, nil
}

func proofParts(contract, caller fhe.Address, inputs []fhe.Handle) [][]byte {
	parts := make([][]byte, 0, len(inputs)+3)
	parts = append(parts, contract.Bytes(), caller.Bytes())

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(inputs)))
	parts = append(parts, n[:])

	for _, h := range inputs {
		parts = append(parts, h[:])
	}
	return parts
}

func (e *Engine) FromExternal(ctx context.Context, contract, caller fhe.Address, inputs []fhe.Handle, kinds []fhe.Kind, proof []byte) ([]fhe.Handle, error) {
	if len(inputs) != len(kinds) {
		return nil, fmt.Errorf("%w: %d inputs for %d kinds", common.ErrorInvalidInputProof, len(inputs), len(kinds))
	}

	if err := cryptox.VerifyMAC(e.macKey, proof, proofParts(contract, caller, inputs)...); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInputProof, err)
	}

	out := make([]fhe.Handle, len(inputs))
	for i, h := range inputs {
		kind, _, err := e.open(h)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInvalidInputProof, err)
		}
		if kind != kinds[i] || h.Kind() != kinds[i] {
			return nil, fmt.Errorf("%w: input %d is %s, want %s", common.ErrorInvalidInputProof, i, kind, kinds[i])
		}
		out[i] = h
	}
	return out, nil
}

func (e *Engine) TrivialBool(ctx context.Context, v bool) (fhe.Handle, error) {
	return e.store(fhe.KindBool, boolToUint(v))
}

func (e *Engine) compare(a fhe.Handle, pred func(x uint64) bool) (fhe.Handle, error) {
	kind, x, err := e.open(a)
	if err != nil {
		return fhe.Handle{}, err
	}
	if kind == fhe.KindBool {
		return fhe.Handle{}, fmt.Errorf("%w: comparison on %s", fhe.ErrKindMismatch, kind)
	}
	return e.store(fhe.KindBool, boolToUint(pred(x)))
}

func (e *Engine) EqScalar(ctx context.Context, a fhe.Handle, v uint64) (fhe.Handle, error) {
	return e.compare(a, func(x uint64) bool { return x == v })
}

func (e *Engine) GeScalar(ctx context.Context, a fhe.Handle, v uint64) (fhe.Handle, error) {
	return e.compare(a, func(x uint64) bool { return x >= v })
}

func (e *Engine) LeScalar(ctx context.Context, a fhe.Handle, v uint64) (fhe.Handle, error) {
	return e.compare(a, func(x uint64) bool { return x <= v })
}

func (e *Engine) And(ctx context.Context, a, b fhe.Handle) (fhe.Handle, error) {
	x, err := e.openBool(a)
	if err != nil {
		return fhe.Handle{}, err
	}
	y, err := e.openBool(b)
	if err != nil {
		return fhe.Handle{}, err
	}
	return e.store(fhe.KindBool, x&y)
}

func boolToUint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
