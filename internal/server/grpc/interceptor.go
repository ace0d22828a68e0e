package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/rpc"
	"github.com/dmitrijs2005/gophmatch/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountKey ctxKey = "account"

// authenticated lists the methods whose caller is taken from the access token.
var authenticated = map[string]bool{
	rpc.FullMethod(rpc.MatchServiceName, "Register"):          true,
	rpc.FullMethod(rpc.MatchServiceName, "CreateApplication"): true,
	rpc.FullMethod(rpc.MatchServiceName, "SubmitApplication"): true,
	rpc.FullMethod(rpc.MatchServiceName, "CloseApplication"):  true,
	rpc.FullMethod(rpc.GatewayServiceName, "EncryptInput"):    true,
	rpc.FullMethod(rpc.GatewayServiceName, "Decrypt"):         true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !authenticated[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	account, err := auth.GetAccountFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, toStatus(err)
	}

	ctx = context.WithValue(ctx, accountKey, account)
	return handler(ctx, req)
}

func callerFromContext(ctx context.Context) (fhe.Address, error) {
	account, ok := ctx.Value(accountKey).(fhe.Address)
	if !ok || account == "" {
		return "", status.Error(codes.Unauthenticated, "no caller")
	}
	return account, nil
}

var (
	grpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophmatch_grpc_requests_total",
			Help: "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	grpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gophmatch_grpc_request_duration_seconds",
			Help:    "gRPC request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	grpcRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	grpcRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	return resp, err
}
