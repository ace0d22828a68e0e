package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/rpc"
)

type gatewayHandler struct{ s *GRPCServer }

var _ rpc.GatewayServer = (*gatewayHandler)(nil)

// EncryptInput encrypts values for the caller, bound to the matching contract.
func (h *gatewayHandler) EncryptInput(ctx context.Context, req *rpc.EncryptInputRequest) (*rpc.EncryptInputResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.check(req); err != nil {
		return nil, h.s.fail(ctx, "encrypt input", err)
	}

	in := h.s.engine.NewInput(h.s.match.Contract(), caller)
	for i, v := range req.Values {
		switch v.Kind {
		case fhe.KindBool, fhe.KindUint16, fhe.KindUint32, fhe.KindUint64:
			in.Add(v.Kind, v.Value)
		default:
			return nil, h.s.fail(ctx, "encrypt input", fmt.Errorf("%w: value %d has unsupported kind %s", common.ErrorValidation, i, v.Kind))
		}
	}

	bundle, err := in.Encrypt(ctx)
	if err != nil {
		return nil, h.s.fail(ctx, "encrypt input", err)
	}
	return &rpc.EncryptInputResponse{Handles: bundle.Handles, Proof: bundle.Proof}, nil
}

// Decrypt reveals a cleartext to a caller holding a grant for the handle.
func (h *gatewayHandler) Decrypt(ctx context.Context, req *rpc.DecryptRequest) (*rpc.DecryptResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	v, err := h.s.gateway.Decrypt(ctx, req.Handle, caller)
	if err != nil {
		return nil, h.s.fail(ctx, "decrypt", err)
	}
	return &rpc.DecryptResponse{Value: v}, nil
}
