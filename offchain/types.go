package offchain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// Version selects the message layout of an off-chain attestation.
type Version uint16

const (
	// Legacy messages have primary type "Attestation" and no version field.
	Legacy Version = 0
	// Version1 messages have primary type "Attest" and a version field.
	Version1 Version = 1
	// Version2 messages additionally carry a random salt.
	Version2 Version = 2
)

func (v Version) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Version1:
		return "v1"
	case Version2:
		return "v2"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(v))
	}
}

// Known reports whether v is one of the supported message layouts.
func (v Version) Known() bool {
	return v == Legacy || v == Version1 || v == Version2
}

// DomainName is the EIP-712 domain name used by EAS.
const DomainName = "EAS Attestation"

// Domain is the EIP-712 domain an attestation is signed under.
type Domain struct {
	Name              string         `json:"name"`
	Version           string         `json:"version"`
	ChainID           *ChainID       `json:"chainId"`
	VerifyingContract common.Address `json:"verifyingContract"`
}

// ChainID is a chain id that marshals as a JSON number and unmarshals from a
// number or a decimal or 0x-hex string.
type ChainID big.Int

// NewChainID copies id, treating nil as zero.
func NewChainID(id *big.Int) *ChainID {
	if id == nil {
		return new(ChainID)
	}
	return (*ChainID)(new(big.Int).Set(id))
}

// Big returns a copy of the chain id, zero for a nil receiver.
func (c *ChainID) Big() *big.Int {
	if c == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(c))
}

func (c *ChainID) MarshalJSON() ([]byte, error) {
	return []byte(c.Big().String()), nil
}

func (c *ChainID) UnmarshalJSON(input []byte) error {
	text := string(input)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	parsed, ok := math.ParseBig256(text)
	if !ok {
		return fmt.Errorf("invalid chain id %s", input)
	}
	(*big.Int)(c).Set(parsed)
	return nil
}

func (d Domain) typedDataDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(d.ChainID.Big()),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// Equal compares domains field by field.
func (d Domain) Equal(other Domain) bool {
	return d.Version == other.Version && d.SameDeployment(other)
}

// SameDeployment reports whether both domains name the same contract on the
// same chain. The version string is not compared.
func (d Domain) SameDeployment(other Domain) bool {
	if d.Name != other.Name || d.VerifyingContract != other.VerifyingContract {
		return false
	}
	return d.ChainID.Big().Cmp(other.ChainID.Big()) == 0
}

// Uint64 is a uint64 that marshals as a JSON number and unmarshals from a
// number or a decimal or 0x-hex string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(u), 10)), nil
}

func (u *Uint64) UnmarshalJSON(input []byte) error {
	var parsed math.HexOrDecimal64
	if err := parsed.UnmarshalJSON(input); err != nil {
		return err
	}
	*u = Uint64(parsed)
	return nil
}

// Message is the signed content of an off-chain attestation. Attester is
// informational and not part of the signed struct.
type Message struct {
	Version        uint16         `json:"version"`
	Schema         interfaces.UID `json:"schema"`
	RefUID         interfaces.UID `json:"refUID"`
	Time           Uint64         `json:"time"`
	ExpirationTime Uint64         `json:"expirationTime"`
	Recipient      common.Address `json:"recipient"`
	Attester       common.Address `json:"attester"`
	Revocable      bool           `json:"revocable"`
	Data           hexutil.Bytes  `json:"data"`
	Salt           *common.Hash   `json:"salt,omitempty"`
}

// Signature is a secp256k1 signature split into its components. R and S are
// kept as hex strings so structurally broken input survives parsing and can
// be reported by Verify.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// SignedAttestation is an off-chain attestation in the reference SDK layout.
type SignedAttestation struct {
	Domain      Domain         `json:"domain"`
	PrimaryType string         `json:"primaryType"`
	Types       apitypes.Types `json:"types"`
	Signature   Signature      `json:"signature"`
	UID         interfaces.UID `json:"uid"`
	Message     Message        `json:"message"`
}

// ShareablePackage is the document exchanged between parties: a signed
// attestation together with the address that claims to have signed it.
type ShareablePackage struct {
	Sig    SignedAttestation `json:"sig"`
	Signer common.Address    `json:"signer"`
}

// ParsePackage parses a shareable package. A bare signed attestation is also
// accepted, in which case Signer is taken from the message attester.
func ParsePackage(data []byte) (*ShareablePackage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedSignature, err)
	}

	if _, ok := fields["sig"]; ok {
		var pkg ShareablePackage
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedSignature, err)
		}
		return &pkg, nil
	}

	signed, err := ParseSignedAttestation(data)
	if err != nil {
		return nil, err
	}
	return &ShareablePackage{Sig: *signed, Signer: signed.Message.Attester}, nil
}

// ParseSignedAttestation parses a signed attestation document.
func ParseSignedAttestation(data []byte) (*SignedAttestation, error) {
	var signed SignedAttestation
	if err := json.Unmarshal(data, &signed); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedSignature, err)
	}
	return &signed, nil
}
