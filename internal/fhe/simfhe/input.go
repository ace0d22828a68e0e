package simfhe

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/cryptox"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

type inputValue struct {
	kind  fhe.Kind
	value uint64
}

// InputBuilder collects cleartexts a client wants to submit and encrypts
// them as one bundle bound to (contract, caller).
type InputBuilder struct {
	engine   *Engine
	contract fhe.Address
	caller   fhe.Address
	values   []inputValue
}

// NewInput starts an input bundle for caller targeting contract.
func (e *Engine) NewInput(contract, caller fhe.Address) *InputBuilder {
	return &InputBuilder{engine: e, contract: contract, caller: caller}
}

func (b *InputBuilder) Add(kind fhe.Kind, v uint64) *InputBuilder {
	b.values = append(b.values, inputValue{kind: kind, value: v})
	return b
}

func (b *InputBuilder) AddBool(v bool) *InputBuilder { return b.Add(fhe.KindBool, boolToUint(v)) }
func (b *InputBuilder) Add16(v uint16) *InputBuilder { return b.Add(fhe.KindUint16, uint64(v)) }
func (b *InputBuilder) Add32(v uint32) *InputBuilder { return b.Add(fhe.KindUint32, uint64(v)) }
func (b *InputBuilder) Add64(v uint64) *InputBuilder { return b.Add(fhe.KindUint64, v) }

// Encrypt seals every value and signs the resulting handles.
func (b *InputBuilder) Encrypt(ctx context.Context) (*fhe.InputBundle, error) {
	if len(b.values) == 0 {
		return nil, fmt.Errorf("empty input bundle")
	}

	handles := make([]fhe.Handle, 0, len(b.values))
	for i, v := range b.values {
		h, err := b.engine.store(v.kind, v.value)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		handles = append(handles, h)
	}

	proof := cryptox.MAC(b.engine.macKey, proofParts(b.contract, b.caller, handles)...)
	return &fhe.InputBundle{Handles: handles, Proof: proof}, nil
}
