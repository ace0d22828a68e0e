package simfhe

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
)

// Gateway is the development decryption gateway. It reveals a cleartext only
// to an account the core's access list has granted.
type Gateway struct {
	engine *Engine
	acl    fhe.AccessList
}

var _ fhe.Decrypter = (*Gateway)(nil)

func NewGateway(e *Engine, acl fhe.AccessList) *Gateway {
	return &Gateway{engine: e, acl: acl}
}

func (g *Gateway) Decrypt(ctx context.Context, h fhe.Handle, account fhe.Address) (uint64, error) {
	allowed, err := g.acl.IsAllowed(ctx, h, account)
	if err != nil {
		return 0, fmt.Errorf("acl lookup: %w", err)
	}
	if !allowed {
		return 0, fmt.Errorf("%w: %s may not decrypt %s", common.ErrorUnauthorized, account, h)
	}

	_, v, err := g.engine.open(h)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// DecryptBool is Decrypt for KindBool handles.
func (g *Gateway) DecryptBool(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error) {
	if h.Kind() != fhe.KindBool {
		return false, fmt.Errorf("%w: %s is %s", fhe.ErrKindMismatch, h, h.Kind())
	}
	v, err := g.Decrypt(ctx, h, account)
	return v == 1, err
}
