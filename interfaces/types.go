// Package interfaces defines the core interfaces and types for the attestation toolkit.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrConfigurationMissing is returned when a required environment value is absent.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrConnectionFailure is returned when the JSON-RPC provider cannot be reached.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrTransactionReverted is returned when a contract rejects a transaction,
	// e.g. when the revocable flag does not match the schema's revocability.
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrInsufficientFunds is returned when the signer cannot pay for a transaction.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound is returned when a schema or attestation does not exist on chain.
	ErrNotFound = errors.New("not found")

	// ErrNoTransactOpts is returned when a transaction is attempted without a signer.
	ErrNoTransactOpts = errors.New("no authorized transactor available")

	// ErrInvalidSchema is returned when a schema string cannot be parsed.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrTypeMismatch is returned when a value cannot be represented in its declared type.
	ErrTypeMismatch = errors.New("value does not match declared type")

	// ErrMalformedPayload is returned when encoded data does not match the schema layout.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMalformedSignature is returned when an off-chain attestation is structurally invalid.
	ErrMalformedSignature = errors.New("malformed signature")
)

// UID is a 32-byte identifier of a schema or an attestation.
type UID [32]byte

// ZeroUID is the identifier the contracts use for "no reference".
var ZeroUID = UID{}

// NewUIDFromBytes creates a UID from a 32-byte slice.
func NewUIDFromBytes(source []byte) (UID, error) {
	if len(source) != 32 {
		return UID{}, errors.New("invalid UID conversion from bytes: incorrect length")
	}

	var uid UID
	copy(uid[:], source)
	return uid, nil
}

// NewUIDFromHex parses a 64-character hex string, with or without 0x prefix.
func NewUIDFromHex(source string) (UID, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(source, "0x"), "0X")
	if len(clean) != 64 {
		return UID{}, errors.New("invalid UID length: hex string must be 64 characters")
	}

	uidBytes, err := hex.DecodeString(clean)
	if err != nil {
		return UID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewUIDFromBytes(uidBytes)
}

// String returns the 0x-prefixed lowercase hex representation.
func (u UID) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// Bytes returns the raw 32 bytes.
func (u UID) Bytes() []byte {
	return u[:]
}

// IsZero reports whether the UID is the zero identifier.
func (u UID) IsZero() bool {
	return u == ZeroUID
}

// MarshalText implements encoding.TextMarshaler.
func (u UID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UID) UnmarshalText(text []byte) error {
	parsed, err := NewUIDFromHex(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// SchemaRecord is a schema as stored by the SchemaRegistry contract.
type SchemaRecord struct {
	UID       UID            `json:"uid"`
	Schema    string         `json:"schema"`
	Resolver  common.Address `json:"resolver"`
	Revocable bool           `json:"revocable"`
}

// Attestation is an on-chain attestation record.
type Attestation struct {
	UID            UID            `json:"uid"`
	Schema         UID            `json:"schema"`
	Time           uint64         `json:"time"`
	ExpirationTime uint64         `json:"expirationTime"`
	RevocationTime uint64         `json:"revocationTime"`
	RefUID         UID            `json:"refUID"`
	Recipient      common.Address `json:"recipient"`
	Attester       common.Address `json:"attester"`
	Revocable      bool           `json:"revocable"`
	Data           []byte         `json:"data"`
}

// Expired reports whether the attestation has a non-zero expiration before now.
func (a *Attestation) Expired(now time.Time) bool {
	return a.ExpirationTime != 0 && a.ExpirationTime < uint64(now.Unix())
}

// Revoked reports whether the attestation was revoked.
func (a *Attestation) Revoked() bool {
	return a.RevocationTime != 0
}

// AttestationRequest is the input of an on-chain attest call.
type AttestationRequest struct {
	Schema         UID
	Recipient      common.Address
	ExpirationTime uint64 // 0 means never
	Revocable      bool
	RefUID         UID
	Data           []byte
	Value          *big.Int // ETH forwarded to the resolver, normally nil
}
