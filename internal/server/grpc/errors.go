package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Unknown errors become a bare
// Internal so driver details never reach clients.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorInvalidInputProof),
		errors.Is(err, common.ErrorValidation),
		errors.Is(err, fhe.ErrKindMismatch),
		errors.Is(err, fhe.ErrUnknownHandle),
		errors.Is(err, fhe.ErrOutOfRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorNotRegistered),
		errors.Is(err, common.ErrorApplicationClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
