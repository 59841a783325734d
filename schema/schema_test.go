package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleSchema = "bytes32[] citationUID, bytes32 authorName, string articleTitle, bytes32 articleHash, string urlOfContent"

func TestParse(t *testing.T) {
	s, err := Parse(articleSchema)
	require.NoError(t, err)

	fields := s.Fields()
	require.Len(t, fields, 5)
	assert.Equal(t, "citationUID", fields[0].Name)
	assert.Equal(t, "bytes32[]", fields[0].TypeName)
	assert.Equal(t, "urlOfContent", fields[4].Name)
	assert.Equal(t, articleSchema, s.String())

	f, ok := s.Field("articleHash")
	require.True(t, ok)
	assert.Equal(t, "bytes32", f.TypeName)

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestParse_Aliases(t *testing.T) {
	s, err := Parse("ipfsHash cid, ipfsHash[] previous")
	require.NoError(t, err)

	fields := s.Fields()
	assert.Equal(t, "bytes32", fields[0].Type.String())
	assert.Equal(t, "bytes32[]", fields[1].Type.String())
	assert.Equal(t, "ipfsHash", fields[0].TypeName)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"missing name", "uint256"},
		{"extra token", "uint256 a b"},
		{"unknown type", "uint257 a"},
		{"duplicate name", "uint256 a, bool a"},
		{"bad name", "uint256 1a"},
		{"tuple", "(uint256 a, bool b) pair"},
		{"trailing comma", "uint256 a,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.schema)
			assert.ErrorIs(t, err, interfaces.ErrInvalidSchema)
		})
	}
}

func TestEncode_KnownVector(t *testing.T) {
	s := MustParse("uint256 amount, bool vote")

	data, err := s.EncodeMap(map[string]any{"amount": 1, "vote": true})
	require.NoError(t, err)

	expected := "0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000001"
	assert.Equal(t, expected, hex.EncodeToString(data))
}

func TestRoundTrip_ArticlePayload(t *testing.T) {
	s := MustParse(articleSchema)
	articleHash := sha256.Sum256([]byte("article body"))

	values, err := s.Values(map[string]any{
		"citationUID":  []any{},
		"authorName":   "Author Name",
		"articleTitle": "Sample Article Title",
		"articleHash":  articleHash,
		"urlOfContent": "https://example.com/article",
	})
	require.NoError(t, err)

	data, err := s.Encode(values...)
	require.NoError(t, err)

	decoded, err := s.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, values, decoded)

	var authorName [32]byte
	copy(authorName[:], "Author Name")
	assert.Equal(t, authorName, decoded[1].Value)
	assert.Equal(t, articleHash, decoded[3].Value)
	assert.Equal(t, [][32]byte{}, decoded[0].Value)
}

func TestRoundTrip_Types(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		input    map[string]any
		expected []any
	}{
		{
			name:     "integers",
			schema:   "uint8 a, uint64 b, uint256 c, int16 d, int256 e, uint24 f",
			input:    map[string]any{"a": 255, "b": "18446744073709551615", "c": big.NewInt(42), "d": -300, "e": "-0x10", "f": float64(7)},
			expected: []any{uint8(255), uint64(18446744073709551615), big.NewInt(42), int16(-300), big.NewInt(-16), big.NewInt(7)},
		},
		{
			name:     "address and bool",
			schema:   "address who, bool ok",
			input:    map[string]any{"who": "0xdd74500Da50db8B5A120310A00443C55b8Df3F10", "ok": false},
			expected: []any{common.HexToAddress("0xdd74500Da50db8B5A120310A00443C55b8Df3F10"), false},
		},
		{
			name:     "dynamic bytes",
			schema:   "bytes blob, string note",
			input:    map[string]any{"blob": "0xdeadbeef", "note": ""},
			expected: []any{[]byte{0xde, 0xad, 0xbe, 0xef}, ""},
		},
		{
			name:     "fixed arrays",
			schema:   "uint16[3] triple, bytes4 tag",
			input:    map[string]any{"triple": []int{1, 2, 3}, "tag": []byte{1, 2, 3, 4}},
			expected: []any{[3]uint16{1, 2, 3}, [4]byte{1, 2, 3, 4}},
		},
		{
			name:   "nested slices",
			schema: "address[] signers, string[] labels",
			input: map[string]any{
				"signers": []string{"0x1e3de6aE412cA218FD2ae3379750388D414532dc"},
				"labels":  []any{"a", "b"},
			},
			expected: []any{
				[]common.Address{common.HexToAddress("0x1e3de6aE412cA218FD2ae3379750388D414532dc")},
				[]string{"a", "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustParse(tt.schema)

			values, err := s.Values(tt.input)
			require.NoError(t, err)
			for i, v := range values {
				assert.Equal(t, tt.expected[i], v.Value, "canonical value of %s", v.Name)
			}

			data, err := s.Encode(values...)
			require.NoError(t, err)

			decoded, err := s.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, values, decoded)
		})
	}
}

func TestNewValue_RejectsPlaceholders(t *testing.T) {
	s := MustParse(articleSchema)

	// The placeholder literal used by the original scripts for every field.
	for _, f := range s.Fields() {
		t.Run(f.Name, func(t *testing.T) {
			_, err := NewValue(f, 1)
			assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)
		})
	}
}

func TestNewValue_Mismatches(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value any
	}{
		{"nil", "string", nil},
		{"uint overflow", "uint8", 256},
		{"negative uint", "uint64", -1},
		{"int overflow", "int8", 128},
		{"fractional float", "uint256", 1.5},
		{"bool from string", "bool", "true"},
		{"bad address", "address", "0x1234"},
		{"short hex bytes32", "bytes32", "0x1234"},
		{"long string bytes4", "bytes4", "too long"},
		{"bytes without prefix", "bytes", "deadbeef"},
		{"wrong fixed length", "uint8[2]", []int{1}},
		{"scalar for array", "bytes32[]", "0x00"},
		{"bad element", "uint8[]", []any{1, "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustParse(tt.typ + " field")
			_, err := NewValue(s.Fields()[0], tt.value)
			assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)
		})
	}
}

func TestEncode_Mismatches(t *testing.T) {
	s := MustParse("uint256 a, string b")

	_, err := s.EncodeMap(map[string]any{"a": 1})
	assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)

	_, err = s.EncodeMap(map[string]any{"a": 1, "c": "x"})
	assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)

	// Values out of schema order
	values, err := s.Values(map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	_, err = s.Encode(values[1], values[0])
	assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)

	// Hand-built value with the wrong Go type
	_, err = s.Encode(Value{Name: "a", Type: "uint256", Value: "not a number"}, values[1])
	assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)
}

func TestDecode_Malformed(t *testing.T) {
	s := MustParse(articleSchema)
	data, err := s.EncodeMap(map[string]any{
		"citationUID":  []any{"0x" + hex.EncodeToString(make([]byte, 32))},
		"authorName":   "Author Name",
		"articleTitle": "Title",
		"articleHash":  make([]byte, 32),
		"urlOfContent": "https://example.com",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", data[:len(data)-1]},
		{"trailing bytes", append(append([]byte{}, data...), 0x01)},
		{"short head", data[:64]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Decode(tt.data)
			assert.ErrorIs(t, err, interfaces.ErrMalformedPayload)
		})
	}
}

func TestDecode_RejectsDirtyPadding(t *testing.T) {
	s := MustParse("bool flag")
	data := make([]byte, 32)
	data[31] = 2

	_, err := s.Decode(data)
	assert.ErrorIs(t, err, interfaces.ErrMalformedPayload)
}

func TestUID(t *testing.T) {
	// keccak256(abi.encodePacked(schema, address(0), revocable))
	assert.Equal(t,
		"0x0fcfaf1c07cd7f659bfb352c7032d20708707b781cac580fe42eb520a645f35f",
		UID(articleSchema, common.Address{}, false).String())
	assert.Equal(t,
		"0xa89d9b8c591d6b885e559de7328bdab4723cf112582c986bf8c3404d4f1fe938",
		MustParse(articleSchema).UID(common.Address{}, true).String())
}

func TestValue_String(t *testing.T) {
	s := MustParse("bytes4 tag, uint256 n")
	values, err := s.Values(map[string]any{"tag": "0x01020304", "n": 10})
	require.NoError(t, err)

	assert.Equal(t, `bytes4 tag = "0x01020304"`, values[0].String())
	assert.Equal(t, `uint256 n = "10"`, values[1].String())
}
