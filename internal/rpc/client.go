package rpc

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// WithAccessToken returns ctx carrying token in the outgoing metadata,
// replacing any token already there.
func WithAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// Client talks to both gophmatch services over one connection.
type Client struct {
	conn        *grpc.ClientConn
	accessToken string
}

// Dial connects to target without transport security. Every call carries
// accessToken when it is not empty.
func Dial(target, accessToken string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{accessToken: accessToken}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
		grpc.WithChainUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = WithAccessToken(ctx, c.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *Client) match(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, FullMethod(MatchServiceName, method), in, out)
}

func (c *Client) gateway(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, FullMethod(GatewayServiceName, method), in, out)
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest) error {
	return c.match(ctx, "Register", in, &Empty{})
}

func (c *Client) CreateApplication(ctx context.Context, criteria Criteria) (uint64, error) {
	out := &ApplicationIDResponse{}
	err := c.match(ctx, "CreateApplication", &CreateApplicationRequest{Criteria: criteria}, out)
	return out.ID, err
}

func (c *Client) GetApplication(ctx context.Context, id uint64) (*Application, error) {
	out := &Application{}
	if err := c.match(ctx, "GetApplication", &ApplicationRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitApplication(ctx context.Context, id uint64) (*HandleResponse, error) {
	out := &HandleResponse{}
	if err := c.match(ctx, "SubmitApplication", &ApplicationRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CloseApplication(ctx context.Context, id uint64) error {
	return c.match(ctx, "CloseApplication", &ApplicationRequest{ID: id}, &Empty{})
}

func (c *Client) GetUser(ctx context.Context, in *UserRequest) (*User, error) {
	out := &User{}
	if err := c.match(ctx, "GetUser", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetApplicationResult(ctx context.Context, in *ApplicationResultRequest) (*HandleResponse, error) {
	out := &HandleResponse{}
	if err := c.match(ctx, "GetApplicationResult", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NextAppID(ctx context.Context) (uint64, error) {
	out := &ApplicationIDResponse{}
	err := c.match(ctx, "NextAppID", &Empty{}, out)
	return out.ID, err
}

func (c *Client) IsAllowed(ctx context.Context, in *IsAllowedRequest) (bool, error) {
	out := &IsAllowedResponse{}
	err := c.match(ctx, "IsAllowed", in, out)
	return out.Allowed, err
}

func (c *Client) EncryptInput(ctx context.Context, values ...Plaintext) (*EncryptInputResponse, error) {
	out := &EncryptInputResponse{}
	if err := c.gateway(ctx, "EncryptInput", &EncryptInputRequest{Values: values}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Decrypt(ctx context.Context, in *DecryptRequest) (uint64, error) {
	out := &DecryptResponse{}
	err := c.gateway(ctx, "Decrypt", in, out)
	return out.Value, err
}
