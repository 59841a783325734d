package schema

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// typeAliases are schema type names accepted on top of solidity elementary types.
var typeAliases = map[string]string{
	"ipfsHash": "bytes32",
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Field is a single named, typed schema field.
type Field struct {
	Name     string
	TypeName string // as declared in the schema string
	Type     abi.Type
}

// Schema is a parsed schema definition.
type Schema struct {
	raw    string
	fields []Field
	args   abi.Arguments
}

// Parse parses a comma-separated schema string such as
// "bytes32[] citationUID, string articleTitle".
func Parse(schema string) (*Schema, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, fmt.Errorf("%w: empty schema", interfaces.ErrInvalidSchema)
	}

	s := &Schema{raw: schema}
	seen := make(map[string]bool)

	for i, item := range strings.Split(schema, ",") {
		parts := strings.Fields(item)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: field %d must be \"<type> <name>\", got %q", interfaces.ErrInvalidSchema, i, strings.TrimSpace(item))
		}
		typeName, name := parts[0], parts[1]

		if !fieldNameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: invalid field name %q", interfaces.ErrInvalidSchema, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate field name %q", interfaces.ErrInvalidSchema, name)
		}
		seen[name] = true

		abiType, err := parseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", interfaces.ErrInvalidSchema, name, err)
		}

		s.fields = append(s.fields, Field{Name: name, TypeName: typeName, Type: abiType})
		s.args = append(s.args, abi.Argument{Name: name, Type: abiType})
	}

	return s, nil
}

// MustParse is like Parse but panics on error. Intended for schema literals.
func MustParse(schema string) *Schema {
	s, err := Parse(schema)
	if err != nil {
		panic(err)
	}
	return s
}

func parseType(typeName string) (abi.Type, error) {
	if strings.ContainsAny(typeName, "()") {
		return abi.Type{}, fmt.Errorf("tuple types are not supported: %s", typeName)
	}

	// Aliases apply to the element type, e.g. ipfsHash[] -> bytes32[]
	base, suffix := typeName, ""
	if idx := strings.Index(typeName, "["); idx >= 0 {
		base, suffix = typeName[:idx], typeName[idx:]
	}
	if alias, ok := typeAliases[base]; ok {
		base = alias
	}

	t, err := abi.NewType(base+suffix, "", nil)
	if err != nil {
		return abi.Type{}, err
	}
	if !supported(t) {
		return abi.Type{}, fmt.Errorf("unsupported type: %s", typeName)
	}
	return t, nil
}

func supported(t abi.Type) bool {
	switch t.T {
	case abi.BoolTy, abi.StringTy, abi.AddressTy, abi.UintTy, abi.IntTy, abi.BytesTy, abi.FixedBytesTy:
		return true
	case abi.SliceTy, abi.ArrayTy:
		return supported(*t.Elem)
	default:
		return false
	}
}

// String returns the schema string as it was parsed.
func (s *Schema) String() string {
	return s.raw
}

// Fields returns the schema fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Values builds validated values for every field from a name-keyed map.
func (s *Schema) Values(named map[string]any) ([]Value, error) {
	if len(named) != len(s.fields) {
		return nil, fmt.Errorf("%w: schema has %d fields, got %d values", interfaces.ErrTypeMismatch, len(s.fields), len(named))
	}

	values := make([]Value, 0, len(s.fields))
	for _, f := range s.fields {
		raw, ok := named[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing value for field %q", interfaces.ErrTypeMismatch, f.Name)
		}
		v, err := NewValue(f, raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Encode ABI-encodes one value per field, in schema order.
func (s *Schema) Encode(values ...Value) ([]byte, error) {
	if len(values) != len(s.fields) {
		return nil, fmt.Errorf("%w: schema has %d fields, got %d values", interfaces.ErrTypeMismatch, len(s.fields), len(values))
	}

	packed := make([]any, len(values))
	for i, v := range values {
		f := s.fields[i]
		if v.Name != f.Name || v.Type != f.TypeName {
			return nil, fmt.Errorf("%w: value %d is %s %s, schema expects %s %s", interfaces.ErrTypeMismatch, i, v.Type, v.Name, f.TypeName, f.Name)
		}
		c, err := canonical(f.Type, v.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", interfaces.ErrTypeMismatch, f.Name, err)
		}
		packed[i] = c
	}

	data, err := s.args.Pack(packed...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTypeMismatch, err)
	}
	return data, nil
}

// EncodeMap validates a name-keyed map against the schema and encodes it.
func (s *Schema) EncodeMap(named map[string]any) ([]byte, error) {
	values, err := s.Values(named)
	if err != nil {
		return nil, err
	}
	return s.Encode(values...)
}

// Decode unpacks an encoded payload into one value per field. The payload
// must re-encode to exactly the same bytes.
func (s *Schema) Decode(data []byte) ([]Value, error) {
	unpacked, err := s.args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedPayload, err)
	}
	if len(unpacked) != len(s.fields) {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", interfaces.ErrMalformedPayload, len(s.fields), len(unpacked))
	}

	reencoded, err := s.args.Pack(unpacked...)
	if err != nil || !bytes.Equal(reencoded, data) {
		return nil, fmt.Errorf("%w: payload layout does not match schema", interfaces.ErrMalformedPayload)
	}

	values := make([]Value, len(unpacked))
	for i, f := range s.fields {
		values[i] = Value{Name: f.Name, Type: f.TypeName, Value: unpacked[i]}
	}
	return values, nil
}

// UID computes the registry identifier of a schema, matching
// keccak256(abi.encodePacked(schema, resolver, revocable)).
func UID(schema string, resolver common.Address, revocable bool) interfaces.UID {
	var revocableByte byte
	if revocable {
		revocableByte = 1
	}
	return interfaces.UID(crypto.Keccak256Hash([]byte(schema), resolver.Bytes(), []byte{revocableByte}))
}

// UID computes the registry identifier of this schema.
func (s *Schema) UID(resolver common.Address, revocable bool) interfaces.UID {
	return UID(s.raw, resolver, revocable)
}
