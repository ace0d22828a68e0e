// Package grpc exposes the matching core and the development gateway over
// gRPC using the descriptors in internal/rpc.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophmatch/internal/fhe/simfhe"
	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/rpc"
	"github.com/dmitrijs2005/gophmatch/internal/server/locations"
	"github.com/dmitrijs2005/gophmatch/internal/server/services"
	"github.com/go-playground/validator"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	match     *services.MatchService
	engine    *simfhe.Engine
	gateway   *simfhe.Gateway
	catalog   *locations.Catalog
	logger    logging.Logger
	jwtSecret []byte
	validate  *validator.Validate
}

type Option func(*GRPCServer)

// WithGateway serves the development EncryptInput/Decrypt service backed by e.
// Development only: e never forgets a ciphertext, so every call grows it.
func WithGateway(e *simfhe.Engine, g *simfhe.Gateway) Option {
	return func(s *GRPCServer) {
		s.engine = e
		s.gateway = g
	}
}

// WithLocations rejects country and city ids missing from c.
func WithLocations(c *locations.Catalog) Option {
	return func(s *GRPCServer) { s.catalog = c }
}

func NewGRPCServer(address string, l logging.Logger, ms *services.MatchService, secretKey string, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   address,
		logger:    l.With("module", "grpc_server"),
		match:     ms,
		jwtSecret: []byte(secretKey),
		validate:  validator.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			s.metricsInterceptor,
			s.accessTokenInterceptor,
		),
	)

	rpc.RegisterMatchServer(srv, &matchHandler{s})
	if s.gateway != nil {
		rpc.RegisterGatewayServer(srv, &gatewayHandler{s})
	}
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
