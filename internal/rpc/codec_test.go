package rpc

import (
	"context"
	"os"
	"regexp"
	"slices"
	"strconv"
	"testing"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestCodec_Name(t *testing.T) {
	assert.Equal(t, "proto", Codec{}.Name())
}

func TestCodec_RoundTrip(t *testing.T) {
	h1 := fhe.NewHandle([]byte{0xab}, fhe.KindUint32)
	h2 := fhe.NewHandle([]byte{0xcd}, fhe.KindUint64)
	account := fhe.MustAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

	tests := []struct {
		name string
		in   any
		out  any
	}{
		{"empty", &Empty{}, &Empty{}},
		{"register", &RegisterRequest{Username: "alice", Handles: []fhe.Handle{h1, {}, h2, h1}, Proof: []byte{1, 2, 3}}, &RegisterRequest{}},
		{"application", &Application{ID: 3, Creator: account, Active: true, Criteria: Criteria{
			CountryID: 1, CityID: 2, MinSalary: 100, MaxSalary: 200, MinBirthYear: 1980, MaxBirthYear: 2000,
		}}, &Application{}},
		{"user", &User{Account: account, Username: "bob", Country: h1, City: h1, Salary: h2, BirthYear: h1, Registered: true}, &User{}},
		{"encrypt", &EncryptInputRequest{Values: []Plaintext{{Kind: fhe.KindBool, Value: 1}, {Kind: fhe.KindUint64, Value: 1 << 40}}}, &EncryptInputRequest{}},
		{"encrypt response", &EncryptInputResponse{Handles: []fhe.Handle{h2}, Proof: []byte{9}}, &EncryptInputResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Codec{}.Marshal(tt.in)
			require.NoError(t, err)
			require.NoError(t, Codec{}.Unmarshal(b, tt.out))
			if diff := cmp.Diff(tt.in, tt.out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_WireFormat(t *testing.T) {
	b, err := Codec{}.Marshal(&ApplicationRequest{ID: 150})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x96, 0x01}, b)

	// zero values are omitted as in proto3
	b, err = Codec{}.Marshal(&Application{})
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestCodec_MatchesDynamicMessage(t *testing.T) {
	h := fhe.NewHandle([]byte{0x01, 0x02}, fhe.KindUint16)

	m := dynamicpb.NewMessage(File().Messages().ByName("IsAllowedRequest"))
	fields := m.Descriptor().Fields()
	m.Set(fields.ByName("handle"), protoreflect.ValueOfBytes(h[:]))
	m.Set(fields.ByName("account"), protoreflect.ValueOfString("0xabc"))

	want, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	require.NoError(t, err)

	got, err := Codec{}.Marshal(&IsAllowedRequest{Handle: h, Account: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var out IsAllowedRequest
	require.NoError(t, Codec{}.Unmarshal(want, &out))
	assert.Equal(t, h, out.Handle)
	assert.Equal(t, fhe.Address("0xabc"), out.Account)
}

func TestCodec_PassesProtoMessagesThrough(t *testing.T) {
	m := dynamicpb.NewMessage(File().Messages().ByName("DecryptResponse"))
	m.Set(m.Descriptor().Fields().ByName("value"), protoreflect.ValueOfUint64(42))

	b, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	out := dynamicpb.NewMessage(File().Messages().ByName("DecryptResponse"))
	require.NoError(t, Codec{}.Unmarshal(b, out))
	assert.Equal(t, uint64(42), out.Get(out.Descriptor().Fields().ByName("value")).Uint())
}

func TestCodec_RejectsMalformed(t *testing.T) {
	msgs := File().Messages()

	short := dynamicpb.NewMessage(msgs.ByName("HandleResponse"))
	short.Set(short.Descriptor().Fields().ByName("handle"), protoreflect.ValueOfBytes([]byte{1, 2, 3}))
	b, err := proto.Marshal(short)
	require.NoError(t, err)
	err = Codec{}.Unmarshal(b, &HandleResponse{})
	assert.ErrorContains(t, err, "got 3 bytes, want 32")

	kind := dynamicpb.NewMessage(msgs.ByName("Plaintext"))
	kind.Set(kind.Descriptor().Fields().ByName("kind"), protoreflect.ValueOfUint32(300))
	b, err = proto.Marshal(kind)
	require.NoError(t, err)
	err = Codec{}.Unmarshal(b, &Plaintext{})
	assert.ErrorContains(t, err, "overflows")

	assert.Error(t, Codec{}.Unmarshal([]byte{0xff}, &Empty{}))
}

func TestCodec_UnknownType(t *testing.T) {
	_, err := Codec{}.Marshal(&struct{ A int }{})
	assert.Error(t, err)

	assert.Error(t, Codec{}.Unmarshal(nil, &struct{ A int }{}))
	assert.Error(t, Codec{}.Unmarshal(nil, Empty{}))

	var nilReq *ApplicationRequest
	_, err = Codec{}.Marshal(nilReq)
	assert.Error(t, err)
}

var (
	protoMessage = regexp.MustCompile(`(?m)^message (\w+) \{([^}]*)\}`)
	protoField   = regexp.MustCompile(`(?m)^\s*(repeated )?(\w+) (\w+) = (\d+);`)
	protoService = regexp.MustCompile(`(?m)^service (\w+) \{([^}]*)\}`)
	protoRPC     = regexp.MustCompile(`rpc (\w+)\((\w+)\) returns \((\w+)\);`)
)

// TestSchemaMatchesProtoFile keeps gophmatch.proto in step with the
// messages and services the server actually speaks.
func TestSchemaMatchesProtoFile(t *testing.T) {
	src, err := os.ReadFile("../proto/" + ProtoFile)
	require.NoError(t, err)

	fromFile := map[string][]string{}
	for _, m := range protoMessage.FindAllStringSubmatch(string(src), -1) {
		fields := []string{}
		for _, f := range protoField.FindAllStringSubmatch(m[2], -1) {
			fields = append(fields, f[1]+f[2]+" "+f[3]+" = "+f[4])
		}
		fromFile[m[1]] = fields
	}
	for _, s := range protoService.FindAllStringSubmatch(string(src), -1) {
		rpcs := []string{}
		for _, r := range protoRPC.FindAllStringSubmatch(s[2], -1) {
			rpcs = append(rpcs, r[1]+"("+r[2]+") "+r[3])
		}
		slices.Sort(rpcs)
		fromFile["service "+s[1]] = rpcs
	}

	fromSchema := map[string][]string{}
	msgs := File().Messages()
	for i := range msgs.Len() {
		md := msgs.Get(i)
		fields := []string{}
		for j := range md.Fields().Len() {
			fd := md.Fields().Get(j)
			typ := fd.Kind().String()
			if fd.Kind() == protoreflect.MessageKind {
				typ = string(fd.Message().Name())
			}
			prefix := ""
			if fd.IsList() {
				prefix = "repeated "
			}
			fields = append(fields, prefix+typ+" "+string(fd.Name())+" = "+strconv.Itoa(int(fd.Number())))
		}
		fromSchema[string(md.Name())] = fields
	}
	svcs := File().Services()
	for i := range svcs.Len() {
		sd := svcs.Get(i)
		rpcs := []string{}
		for j := range sd.Methods().Len() {
			m := sd.Methods().Get(j)
			rpcs = append(rpcs, string(m.Name())+"("+string(m.Input().Name())+") "+string(m.Output().Name()))
		}
		slices.Sort(rpcs)
		fromSchema["service "+string(sd.Name())] = rpcs
	}

	if diff := cmp.Diff(fromSchema, fromFile); diff != "" {
		t.Errorf("gophmatch.proto out of date (-schema +file):\n%s", diff)
	}
}

func TestServiceDescsMatchSchema(t *testing.T) {
	for _, desc := range []struct {
		name    string
		methods int
	}{
		{MatchServiceName, len(MatchServiceDesc.Methods)},
		{GatewayServiceName, len(GatewayServiceDesc.Methods)},
	} {
		sd := File().Services().ByName(protoreflect.FullName(desc.name).Name())
		require.NotNil(t, sd, desc.name)
		assert.Equal(t, protoreflect.FullName(desc.name), sd.FullName())
		assert.Equal(t, desc.methods, sd.Methods().Len())
	}
	for _, m := range MatchServiceDesc.Methods {
		assert.NotNil(t, File().Services().ByName("MatchService").Methods().ByName(protoreflect.Name(m.MethodName)), m.MethodName)
	}
}

func TestWithAccessToken_Replaces(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "old", "x-other", "kept")
	ctx = WithAccessToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, md.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"kept"}, md.Get("x-other"))
}

func TestServiceDescs(t *testing.T) {
	assert.Len(t, MatchServiceDesc.Methods, 9)
	assert.Len(t, GatewayServiceDesc.Methods, 2)
	assert.Equal(t, "/gophmatch.v1.MatchService/Register", FullMethod(MatchServiceName, "Register"))
	assert.Equal(t, ProtoFile, MatchServiceDesc.Metadata)
}
