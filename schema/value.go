package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// Value is a schema field value that has been checked against the field's
// declared type. Value.Value holds the Go representation go-ethereum uses
// for that ABI type (e.g. [32]byte for bytes32, [][32]byte for bytes32[],
// *big.Int for uint256).
type Value struct {
	Name  string
	Type  string
	Value any
}

// NewValue validates v against the field type and returns the tagged value.
//
// Accepted inputs per type:
//   - bool: bool
//   - string: string
//   - address: common.Address, [20]byte, 20-byte slice or hex string
//   - intN/uintN: Go integers, *big.Int, decimal or 0x-hex strings, integral float64, json.Number
//   - bytes: []byte or 0x-hex string
//   - bytesN: N-byte array or slice, 0x-hex string of N bytes, or a UTF-8 string of at most N bytes (right-padded)
//   - T[] and T[N]: any slice or array whose elements are accepted for T
func NewValue(field Field, v any) (Value, error) {
	c, err := canonical(field.Type, v)
	if err != nil {
		return Value{}, fmt.Errorf("%w: field %q (%s): %v", interfaces.ErrTypeMismatch, field.Name, field.TypeName, err)
	}
	return Value{Name: field.Name, Type: field.TypeName, Value: c}, nil
}

// MarshalJSON renders the value with hex strings for byte types and decimal
// strings for big integers.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Value any    `json:"value"`
	}{v.Name, v.Type, displayValue(reflect.ValueOf(v.Value))})
}

// String returns a human-readable rendering of the value.
func (v Value) String() string {
	rendered, err := json.Marshal(displayValue(reflect.ValueOf(v.Value)))
	if err != nil {
		return fmt.Sprintf("%v", v.Value)
	}
	return fmt.Sprintf("%s %s = %s", v.Type, v.Name, rendered)
}

func displayValue(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	switch val := rv.Interface().(type) {
	case common.Address:
		return val.Hex()
	case *big.Int:
		return val.String()
	case []byte:
		return hexutil.Encode(val)
	}

	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = displayValue(rv.Index(i))
		}
		return out
	default:
		return rv.Interface()
	}
}

var errNilValue = errors.New("value is nil")

// canonical converts v into the Go type go-ethereum packs and unpacks for t.
func canonical(t abi.Type, v any) (any, error) {
	if v == nil {
		return nil, errNilValue
	}

	switch t.T {
	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	case abi.AddressTy:
		return toAddress(v)

	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return fitInteger(n, t.Size, t.T == abi.UintTy)

	case abi.BytesTy:
		switch b := v.(type) {
		case []byte:
			return append([]byte{}, b...), nil
		case string:
			decoded, err := hexutil.Decode(b)
			if err != nil {
				return nil, fmt.Errorf("expected 0x-prefixed hex for bytes: %v", err)
			}
			return decoded, nil
		default:
			return nil, fmt.Errorf("expected bytes, got %T", v)
		}

	case abi.FixedBytesTy:
		raw, err := toFixedBytes(v, t.Size)
		if err != nil {
			return nil, err
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("expected list for %s, got %T", t.String(), v)
		}
		if t.T == abi.ArrayTy && rv.Len() != t.Size {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", t.Size, t.String(), rv.Len())
		}

		var out reflect.Value
		if t.T == abi.SliceTy {
			out = reflect.MakeSlice(t.GetType(), rv.Len(), rv.Len())
		} else {
			out = reflect.New(t.GetType()).Elem()
		}
		for i := 0; i < rv.Len(); i++ {
			elem, err := canonical(*t.Elem, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil

	default:
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case [20]byte:
		return common.Address(a), nil
	case []byte:
		if len(a) != common.AddressLength {
			return common.Address{}, fmt.Errorf("expected 20-byte address, got %d bytes", len(a))
		}
		return common.BytesToAddress(a), nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid hex address %q", a)
		}
		return common.HexToAddress(a), nil
	default:
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case *big.Int:
		if n == nil {
			return nil, errNilValue
		}
		return new(big.Int).Set(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("float %v is not an exact integer", n)
		}
		return big.NewInt(int64(n)), nil
	case json.Number:
		return parseIntegerString(string(n))
	case string:
		return parseIntegerString(n)
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func parseIntegerString(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// fitInteger range-checks n and returns the native Go type for sizes 8, 16,
// 32 and 64, or *big.Int otherwise.
func fitInteger(n *big.Int, size int, unsigned bool) (any, error) {
	if unsigned {
		if n.Sign() < 0 || n.BitLen() > size {
			return nil, fmt.Errorf("%s does not fit in uint%d", n, size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(size-1))
		minValue := new(big.Int).Neg(limit)
		maxValue := new(big.Int).Sub(limit, big.NewInt(1))
		if n.Cmp(minValue) < 0 || n.Cmp(maxValue) > 0 {
			return nil, fmt.Errorf("%s does not fit in int%d", n, size)
		}
	}

	switch {
	case unsigned && size == 8:
		return uint8(n.Uint64()), nil
	case unsigned && size == 16:
		return uint16(n.Uint64()), nil
	case unsigned && size == 32:
		return uint32(n.Uint64()), nil
	case unsigned && size == 64:
		return n.Uint64(), nil
	case !unsigned && size == 8:
		return int8(n.Int64()), nil
	case !unsigned && size == 16:
		return int16(n.Int64()), nil
	case !unsigned && size == 32:
		return int32(n.Int64()), nil
	case !unsigned && size == 64:
		return n.Int64(), nil
	case n.Sign() == 0:
		// same representation as an unpacked zero, so decoded values compare equal
		return new(big.Int).SetBytes([]byte{0}), nil
	default:
		return n, nil
	}
}

func toFixedBytes(v any, size int) ([]byte, error) {
	if s, ok := v.(string); ok {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			decoded, err := hexutil.Decode("0x" + s[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex for bytes%d: %v", size, err)
			}
			if len(decoded) != size {
				return nil, fmt.Errorf("expected %d bytes, got %d", size, len(decoded))
			}
			return decoded, nil
		}
		// Short string, right-padded like ethers' encodeBytes32String.
		if len(s) > size {
			return nil, fmt.Errorf("string of %d bytes does not fit in bytes%d", len(s), size)
		}
		padded := make([]byte, size)
		copy(padded, s)
		return padded, nil
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() == reflect.Uint8 {
		if rv.Len() != size {
			return nil, fmt.Errorf("expected %d bytes, got %d", size, rv.Len())
		}
		out := make([]byte, size)
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}

	return nil, fmt.Errorf("expected bytes%d, got %T", size, v)
}
