// Package schema parses attestation schema strings and encodes attestation
// data according to them.
//
// A schema is an ordered list of "<type> <name>" pairs separated by commas:
//
//	bytes32[] citationUID, bytes32 authorName, string articleTitle, bytes32 articleHash, string urlOfContent
//
// The encoded payload is the ABI encoding of all fields as a single tuple,
// the same layout the EAS contracts and SDKs use. Values are validated when
// they are constructed (NewValue, Schema.Values), so a mismatch such as a
// number passed for a bytes32[] field fails with interfaces.ErrTypeMismatch
// before anything is encoded.
//
//	s, err := schema.Parse(articleSchema)
//	data, err := s.EncodeMap(map[string]any{"citationUID": []any{}, ...})
//	values, err := s.Decode(data)
//
// Decode is strict: a payload that does not unpack, or that unpacks but does
// not re-encode to the same bytes, fails with interfaces.ErrMalformedPayload.
package schema
