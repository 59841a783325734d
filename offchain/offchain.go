package offchain

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

const (
	primaryTypeLegacy = "Attestation"
	primaryTypeAttest = "Attest"
)

var domainTypes = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var attestationFields = []apitypes.Type{
	{Name: "schema", Type: "bytes32"},
	{Name: "recipient", Type: "address"},
	{Name: "time", Type: "uint64"},
	{Name: "expirationTime", Type: "uint64"},
	{Name: "revocable", Type: "bool"},
	{Name: "refUID", Type: "bytes32"},
	{Name: "data", Type: "bytes"},
}

// domainTypesFor lists the domain fields present in domain; the EIP-712
// encoder rejects declared fields that have no value.
func domainTypesFor(domain Domain) []apitypes.Type {
	fields := make([]apitypes.Type, 0, len(domainTypes))
	for _, field := range domainTypes {
		if (field.Name == "name" && domain.Name == "") || (field.Name == "version" && domain.Version == "") {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

// PrimaryType returns the EIP-712 primary type of a message version.
func PrimaryType(version Version) string {
	if version == Legacy {
		return primaryTypeLegacy
	}
	return primaryTypeAttest
}

// Types returns the EIP-712 struct definition of a message version, without
// the EIP712Domain entry. It returns nil for an unknown version.
func Types(version Version) apitypes.Types {
	var fields []apitypes.Type
	switch version {
	case Legacy:
		fields = append(fields, attestationFields...)
	case Version1:
		fields = append([]apitypes.Type{{Name: "version", Type: "uint16"}}, attestationFields...)
	case Version2:
		fields = append([]apitypes.Type{{Name: "version", Type: "uint16"}}, attestationFields...)
		fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})
	default:
		return nil
	}
	return apitypes.Types{PrimaryType(version): fields}
}

// Config identifies the EAS deployment attestations are signed for.
type Config struct {
	Address common.Address
	// Version is the EAS contract version, e.g. "1.3.0".
	Version string
	ChainID *big.Int
}

// Offchain signs and verifies off-chain attestations for one EAS deployment.
// It holds no mutable state and is safe for concurrent use.
type Offchain struct {
	domain  Domain
	version Version
}

// New creates a signer/verifier producing attestations of the given version.
// Only Legacy, Version1 and Version2 are accepted.
func New(config Config, version Version) (*Offchain, error) {
	if !version.Known() {
		return nil, fmt.Errorf("unsupported off-chain attestation version %d", uint16(version))
	}

	return &Offchain{
		domain: Domain{
			Name:              DomainName,
			Version:           config.Version,
			ChainID:           NewChainID(config.ChainID),
			VerifyingContract: config.Address,
		},
		version: version,
	}, nil
}

func (o *Offchain) Domain() Domain {
	d := o.domain
	d.ChainID = NewChainID(o.domain.ChainID.Big())
	return d
}

func (o *Offchain) Version() Version {
	return o.version
}

// Sign fills in the version, attester and (for Version2) a random salt when
// none is given, derives the UID and signs the EIP-712 hash of the message.
// A zero Time is replaced by the current time. Signing is purely local.
func (o *Offchain) Sign(params Message, key *ecdsa.PrivateKey) (*SignedAttestation, error) {
	if key == nil {
		return nil, interfaces.ErrNoTransactOpts
	}

	msg := params
	msg.Version = uint16(o.version)
	msg.Attester = crypto.PubkeyToAddress(key.PublicKey)
	msg.Data = append(hexutil.Bytes{}, params.Data...)
	if msg.Time == 0 {
		msg.Time = Uint64(time.Now().Unix())
	}

	switch o.version {
	case Version2:
		if msg.Salt == nil {
			var salt common.Hash
			if _, err := rand.Read(salt[:]); err != nil {
				return nil, fmt.Errorf("generating salt: %w", err)
			}
			msg.Salt = &salt
		}
	default:
		msg.Salt = nil
	}

	hash, err := typedDataHash(o.version, o.domain, &msg)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}

	return &SignedAttestation{
		Domain:      o.Domain(),
		PrimaryType: PrimaryType(o.version),
		Types:       Types(o.version),
		Signature: Signature{
			R: hexutil.Encode(sig[:32]),
			S: hexutil.Encode(sig[32:64]),
			V: sig[64] + 27,
		},
		UID:     DeriveUID(o.version, &msg),
		Message: msg,
	}, nil
}

// Verify reports whether signed was produced by claimedSigner for this
// deployment. The domain must name the same contract on the same chain; its
// version string is hashed as signed but not compared, so attestations made
// under an earlier contract version still verify. It returns false, never an
// error, when the signature belongs to someone else, the UID does not match
// the message, the deployment differs or no key can be recovered. An error wrapping
// ErrMalformedSignature is returned for structurally invalid input.
func (o *Offchain) Verify(claimedSigner common.Address, signed *SignedAttestation) (bool, error) {
	if signed == nil {
		return false, fmt.Errorf("%w: empty attestation", interfaces.ErrMalformedSignature)
	}

	sig, err := signatureBytes(signed.Signature)
	if err != nil {
		return false, err
	}

	version, err := messageVersion(signed)
	if err != nil {
		return false, err
	}

	if !signed.Domain.SameDeployment(o.domain) {
		return false, nil
	}

	if DeriveUID(version, &signed.Message) != signed.UID {
		return false, nil
	}

	hash, err := typedDataHash(version, signed.Domain, &signed.Message)
	if err != nil {
		return false, fmt.Errorf("%w: %v", interfaces.ErrMalformedSignature, err)
	}

	pubkey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false, nil
	}

	return crypto.PubkeyToAddress(*pubkey) == claimedSigner, nil
}

// VerifyPackage verifies a shareable package against its claimed signer.
func (o *Offchain) VerifyPackage(pkg *ShareablePackage) (bool, error) {
	if pkg == nil {
		return false, fmt.Errorf("%w: empty package", interfaces.ErrMalformedSignature)
	}
	return o.Verify(pkg.Signer, &pkg.Sig)
}

// signatureBytes returns the 65-byte [R || S || V] form with V in {0, 1}.
func signatureBytes(s Signature) ([]byte, error) {
	r, err := hexutil.Decode(s.R)
	if err != nil || len(r) != 32 {
		return nil, fmt.Errorf("%w: r must be 32 bytes of 0x-prefixed hex", interfaces.ErrMalformedSignature)
	}
	sv, err := hexutil.Decode(s.S)
	if err != nil || len(sv) != 32 {
		return nil, fmt.Errorf("%w: s must be 32 bytes of 0x-prefixed hex", interfaces.ErrMalformedSignature)
	}

	v := s.V
	switch v {
	case 27, 28:
		v -= 27
	case 0, 1:
	default:
		return nil, fmt.Errorf("%w: invalid v %d", interfaces.ErrMalformedSignature, s.V)
	}

	sig := make([]byte, 0, 65)
	sig = append(sig, r...)
	sig = append(sig, sv...)
	return append(sig, v), nil
}

// messageVersion derives the message layout from the primary type and the
// version field. Declared types in the document are not trusted.
func messageVersion(signed *SignedAttestation) (Version, error) {
	switch signed.PrimaryType {
	case primaryTypeLegacy:
		return Legacy, nil
	case primaryTypeAttest:
		switch Version(signed.Message.Version) {
		case Version1:
			return Version1, nil
		case Version2:
			if signed.Message.Salt == nil {
				return 0, fmt.Errorf("%w: version 2 attestation without salt", interfaces.ErrMalformedSignature)
			}
			return Version2, nil
		default:
			return 0, fmt.Errorf("%w: unsupported message version %d", interfaces.ErrMalformedSignature, signed.Message.Version)
		}
	default:
		return 0, fmt.Errorf("%w: unknown primary type %q", interfaces.ErrMalformedSignature, signed.PrimaryType)
	}
}

func typedDataHash(version Version, domain Domain, msg *Message) ([]byte, error) {
	types := Types(version)
	types["EIP712Domain"] = domainTypesFor(domain)

	message := apitypes.TypedDataMessage{
		"schema":         msg.Schema.Bytes(),
		"recipient":      msg.Recipient.Hex(),
		"time":           new(big.Int).SetUint64(uint64(msg.Time)),
		"expirationTime": new(big.Int).SetUint64(uint64(msg.ExpirationTime)),
		"revocable":      msg.Revocable,
		"refUID":         msg.RefUID.Bytes(),
		"data":           []byte(msg.Data),
	}
	if version != Legacy {
		message["version"] = new(big.Int).SetUint64(uint64(version))
	}
	if version == Version2 {
		message["salt"] = msg.Salt.Bytes()
	}

	hash, _, err := apitypes.TypedDataAndHash(apitypes.TypedData{
		Types:       types,
		PrimaryType: PrimaryType(version),
		Domain:      domain.typedDataDomain(),
		Message:     message,
	})
	return hash, err
}

// DeriveUID computes the off-chain attestation UID the reference SDK uses:
// keccak256 of the tightly packed message, where the schema enters as the
// UTF-8 bytes of its 0x-hex string.
func DeriveUID(version Version, msg *Message) interfaces.UID {
	packed := make([]byte, 0, 256+len(msg.Data))

	if version != Legacy {
		packed = binary.BigEndian.AppendUint16(packed, uint16(version))
	}
	packed = append(packed, []byte(msg.Schema.String())...)
	packed = append(packed, msg.Recipient.Bytes()...)
	packed = append(packed, common.Address{}.Bytes()...)
	packed = binary.BigEndian.AppendUint64(packed, uint64(msg.Time))
	packed = binary.BigEndian.AppendUint64(packed, uint64(msg.ExpirationTime))
	if msg.Revocable {
		packed = append(packed, 1)
	} else {
		packed = append(packed, 0)
	}
	packed = append(packed, msg.RefUID.Bytes()...)
	packed = append(packed, msg.Data...)
	if version == Version2 && msg.Salt != nil {
		packed = append(packed, msg.Salt.Bytes()...)
	}
	packed = binary.BigEndian.AppendUint32(packed, 0)

	return interfaces.UID(crypto.Keccak256Hash(packed))
}
