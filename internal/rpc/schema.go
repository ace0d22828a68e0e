package rpc

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	// ProtoPackage is the protobuf package of every gophmatch message and service.
	ProtoPackage = "gophmatch.v1"
	// ProtoFile is the path of the schema, relative to the proto root.
	ProtoFile = "gophmatch/v1/gophmatch.proto"
)

// messageTypes lists every message of the schema. A message referenced by
// another one must be listed too.
var messageTypes = []any{
	Empty{},
	RegisterRequest{},
	Criteria{},
	CreateApplicationRequest{},
	ApplicationIDResponse{},
	ApplicationRequest{},
	Application{},
	HandleResponse{},
	UserRequest{},
	User{},
	ApplicationResultRequest{},
	IsAllowedRequest{},
	IsAllowedResponse{},
	Plaintext{},
	EncryptInputRequest{},
	EncryptInputResponse{},
	DecryptRequest{},
	DecryptResponse{},
}

var serviceTypes = map[string]reflect.Type{
	"MatchService":   reflect.TypeOf((*MatchServer)(nil)).Elem(),
	"GatewayService": reflect.TypeOf((*GatewayServer)(nil)).Elem(),
}

type fieldInfo struct {
	index int
	desc  protoreflect.FieldDescriptor
}

type messageInfo struct {
	desc   protoreflect.MessageDescriptor
	fields []fieldInfo
}

type schema struct {
	file     protoreflect.FileDescriptor
	messages map[reflect.Type]*messageInfo
}

var wire = mustBuildSchema()

// File returns the descriptor of the gophmatch protobuf schema.
func File() protoreflect.FileDescriptor { return wire.file }

func mustBuildSchema() *schema {
	s, err := buildSchema(messageTypes, serviceTypes)
	if err != nil {
		panic(fmt.Sprintf("rpc: %v", err))
	}
	return s
}

func buildSchema(types []any, services map[string]reflect.Type) (*schema, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ProtoFile),
		Package: proto.String(ProtoPackage),
		Syntax:  proto.String("proto3"),
	}

	for _, v := range types {
		dp, err := describeMessage(reflect.TypeOf(v))
		if err != nil {
			return nil, err
		}
		fdp.MessageType = append(fdp.MessageType, dp)
	}

	for _, name := range slices.Sorted(maps.Keys(services)) {
		sp, err := describeService(name, services[name])
		if err != nil {
			return nil, err
		}
		fdp.Service = append(fdp.Service, sp)
	}

	fd, err := protodesc.NewFile(fdp, nil)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	s := &schema{file: fd, messages: make(map[reflect.Type]*messageInfo, len(types))}
	for _, v := range types {
		t := reflect.TypeOf(v)
		md := fd.Messages().ByName(protoreflect.Name(t.Name()))
		mi := &messageInfo{desc: md}
		for i := range t.NumField() {
			num, ok := fieldNumber(t.Field(i))
			if !ok {
				continue
			}
			mi.fields = append(mi.fields, fieldInfo{index: i, desc: md.Fields().ByNumber(num)})
		}
		s.messages[t] = mi
	}

	return s, nil
}

func describeMessage(t reflect.Type) (*descriptorpb.DescriptorProto, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	dp := &descriptorpb.DescriptorProto{Name: proto.String(t.Name())}
	for i := range t.NumField() {
		f := t.Field(i)
		num, ok := fieldNumber(f)
		if !ok {
			continue
		}

		ft := f.Type
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if ft.Kind() == reflect.Slice && ft.Elem().Kind() != reflect.Uint8 {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
			ft = ft.Elem()
		}

		kind, typeName, err := protoType(ft)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}

		fp := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(fieldName(f)),
			Number: proto.Int32(int32(num)),
			Label:  label.Enum(),
			Type:   kind.Enum(),
		}
		if typeName != "" {
			fp.TypeName = proto.String(typeName)
		}
		dp.Field = append(dp.Field, fp)
	}

	return dp, nil
}

// describeService maps every method of the server interface iface onto an
// rpc taking its request message and returning its response message.
func describeService(name string, iface reflect.Type) (*descriptorpb.ServiceDescriptorProto, error) {
	sp := &descriptorpb.ServiceDescriptorProto{Name: proto.String(name)}
	for i := range iface.NumMethod() {
		m := iface.Method(i)
		if m.Type.NumIn() != 2 || m.Type.NumOut() != 2 {
			return nil, fmt.Errorf("%s.%s is not a unary handler", name, m.Name)
		}
		in, out := m.Type.In(1).Elem(), m.Type.Out(0).Elem()
		sp.Method = append(sp.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.Name),
			InputType:  proto.String(qualified(in.Name())),
			OutputType: proto.String(qualified(out.Name())),
		})
	}
	return sp, nil
}

func protoType(t reflect.Type) (descriptorpb.FieldDescriptorProto_Type, string, error) {
	switch t.Kind() {
	case reflect.String:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, "", nil
	case reflect.Bool:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, "", nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT32, "", nil
	case reflect.Uint64:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT64, "", nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return descriptorpb.FieldDescriptorProto_TYPE_BYTES, "", nil
		}
	case reflect.Struct:
		return descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, qualified(t.Name()), nil
	}
	return 0, "", fmt.Errorf("unsupported type %s", t)
}

func fieldNumber(f reflect.StructField) (protoreflect.FieldNumber, bool) {
	tag, ok := f.Tag.Lookup("proto")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(tag)
	if err != nil || n <= 0 {
		return 0, false
	}
	return protoreflect.FieldNumber(n), true
}

func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

func qualified(name string) string { return "." + ProtoPackage + "." + name }

// encode copies the struct behind v into a dynamic message of its schema type.
func (s *schema) encode(v any) (*dynamicpb.Message, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("rpc: marshal nil %T", v)
		}
		rv = rv.Elem()
	}

	mi, ok := s.messages[rv.Type()]
	if !ok {
		return nil, fmt.Errorf("rpc: %T is not a gophmatch message", v)
	}

	m := dynamicpb.NewMessage(mi.desc)
	if err := s.fill(m, mi, rv); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *schema) fill(m protoreflect.Message, mi *messageInfo, rv reflect.Value) error {
	for _, f := range mi.fields {
		fv := rv.Field(f.index)
		if fv.IsZero() {
			continue
		}

		if f.desc.IsList() {
			list := m.Mutable(f.desc).List()
			for i := range fv.Len() {
				el := fv.Index(i)
				if f.desc.Kind() == protoreflect.MessageKind {
					item := list.NewElement()
					if err := s.fill(item.Message(), s.messages[el.Type()], el); err != nil {
						return err
					}
					list.Append(item)
					continue
				}
				list.Append(scalarValue(f.desc, el))
			}
			continue
		}

		if f.desc.Kind() == protoreflect.MessageKind {
			if err := s.fill(m.Mutable(f.desc).Message(), s.messages[fv.Type()], fv); err != nil {
				return err
			}
			continue
		}
		m.Set(f.desc, scalarValue(f.desc, fv))
	}
	return nil
}

func scalarValue(fd protoreflect.FieldDescriptor, v reflect.Value) protoreflect.Value {
	switch fd.Kind() {
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(v.String())
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.Bool())
	case protoreflect.Uint32Kind:
		return protoreflect.ValueOfUint32(uint32(v.Uint()))
	case protoreflect.Uint64Kind:
		return protoreflect.ValueOfUint64(v.Uint())
	default:
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return protoreflect.ValueOfBytes(b)
	}
}

// decode copies m into the struct v points to.
func (s *schema) decode(m protoreflect.Message, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("rpc: unmarshal into %T", v)
	}
	mi, err := s.info(v)
	if err != nil {
		return err
	}
	return s.read(m, mi, rv.Elem())
}

// info returns the schema entry of the struct v points to.
func (s *schema) info(v any) (*messageInfo, error) {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("rpc: unmarshal into %T", v)
	}
	mi, ok := s.messages[t.Elem()]
	if !ok {
		return nil, fmt.Errorf("rpc: %T is not a gophmatch message", v)
	}
	return mi, nil
}

func (s *schema) read(m protoreflect.Message, mi *messageInfo, rv reflect.Value) error {
	for _, f := range mi.fields {
		fv := rv.Field(f.index)

		if f.desc.IsList() {
			list := m.Get(f.desc).List()
			if list.Len() == 0 {
				continue
			}
			out := reflect.MakeSlice(fv.Type(), list.Len(), list.Len())
			for i := range list.Len() {
				if err := s.set(f.desc, out.Index(i), list.Get(i)); err != nil {
					return err
				}
			}
			fv.Set(out)
			continue
		}

		if !m.Has(f.desc) {
			continue
		}
		if err := s.set(f.desc, fv, m.Get(f.desc)); err != nil {
			return err
		}
	}
	return nil
}

func (s *schema) set(fd protoreflect.FieldDescriptor, dst reflect.Value, val protoreflect.Value) error {
	switch fd.Kind() {
	case protoreflect.StringKind:
		dst.SetString(val.String())
	case protoreflect.BoolKind:
		dst.SetBool(val.Bool())
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind:
		u := val.Uint()
		if dst.OverflowUint(u) {
			return fmt.Errorf("rpc: field %s: %d overflows %s", fd.FullName(), u, dst.Type())
		}
		dst.SetUint(u)
	case protoreflect.BytesKind:
		b := val.Bytes()
		if dst.Kind() == reflect.Array {
			if len(b) != dst.Len() {
				return fmt.Errorf("rpc: field %s: got %d bytes, want %d", fd.FullName(), len(b), dst.Len())
			}
			reflect.Copy(dst, reflect.ValueOf(b))
			return nil
		}
		dst.SetBytes(append([]byte(nil), b...))
	case protoreflect.MessageKind:
		return s.read(val.Message(), s.messages[dst.Type()], dst)
	default:
		return fmt.Errorf("rpc: field %s: unsupported kind %s", fd.FullName(), fd.Kind())
	}
	return nil
}
