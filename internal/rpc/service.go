package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	MatchServiceName   = "gophmatch.v1.MatchService"
	GatewayServiceName = "gophmatch.v1.GatewayService"
)

// MatchServer is the matching core as seen over gRPC. The caller of a
// mutating method is the account of its access token.
type MatchServer interface {
	Register(context.Context, *RegisterRequest) (*Empty, error)
	CreateApplication(context.Context, *CreateApplicationRequest) (*ApplicationIDResponse, error)
	GetApplication(context.Context, *ApplicationRequest) (*Application, error)
	SubmitApplication(context.Context, *ApplicationRequest) (*HandleResponse, error)
	CloseApplication(context.Context, *ApplicationRequest) (*Empty, error)
	GetUser(context.Context, *UserRequest) (*User, error)
	GetApplicationResult(context.Context, *ApplicationResultRequest) (*HandleResponse, error)
	NextAppID(context.Context, *Empty) (*ApplicationIDResponse, error)
	IsAllowed(context.Context, *IsAllowedRequest) (*IsAllowedResponse, error)
}

// GatewayServer is the development encryption and decryption gateway.
type GatewayServer interface {
	EncryptInput(context.Context, *EncryptInputRequest) (*EncryptInputResponse, error)
	Decrypt(context.Context, *DecryptRequest) (*DecryptResponse, error)
}

// FullMethod returns the gRPC method path of method on service.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			})
		},
	}
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchServiceName, "Register", MatchServer.Register),
		unary(MatchServiceName, "CreateApplication", MatchServer.CreateApplication),
		unary(MatchServiceName, "GetApplication", MatchServer.GetApplication),
		unary(MatchServiceName, "SubmitApplication", MatchServer.SubmitApplication),
		unary(MatchServiceName, "CloseApplication", MatchServer.CloseApplication),
		unary(MatchServiceName, "GetUser", MatchServer.GetUser),
		unary(MatchServiceName, "GetApplicationResult", MatchServer.GetApplicationResult),
		unary(MatchServiceName, "NextAppID", MatchServer.NextAppID),
		unary(MatchServiceName, "IsAllowed", MatchServer.IsAllowed),
	},
	Metadata: ProtoFile,
}

var GatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: GatewayServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(GatewayServiceName, "EncryptInput", GatewayServer.EncryptInput),
		unary(GatewayServiceName, "Decrypt", GatewayServer.Decrypt),
	},
	Metadata: ProtoFile,
}

func RegisterMatchServer(s grpc.ServiceRegistrar, srv MatchServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&GatewayServiceDesc, srv)
}
