// Package rpc defines the gophmatch gRPC contract: request and response
// messages, the service descriptors and typed clients. Messages are
// protobuf-encoded against the gophmatch.v1 schema of File.
package rpc

import (
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// CodecName is the gRPC content-subtype of every gophmatch call.
const CodecName = "proto"

// Codec encodes the gophmatch message structs as protobuf. Generated
// protobuf messages pass straight through to proto.Marshal, so clients
// compiled from gophmatch.proto interoperate with the server.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	m, err := wire.encode(v)
	if err != nil {
		return nil, err
	}
	// field order of dynamic messages is otherwise unspecified
	return proto.MarshalOptions{Deterministic: true}.Marshal(m)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	mi, err := wire.info(v)
	if err != nil {
		return err
	}
	m := dynamicpb.NewMessage(mi.desc)
	if err := proto.Unmarshal(data, m); err != nil {
		return err
	}
	return wire.decode(m, v)
}
