package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SchemaRegistry registers and fetches schema definitions.
type SchemaRegistry interface {
	// Register submits a schema registration transaction.
	Register(ctx context.Context, schema string, resolver common.Address, revocable bool) (*types.Transaction, error)

	// WaitForUID waits for a registration transaction and returns the schema UID.
	WaitForUID(ctx context.Context, tx *types.Transaction) (UID, error)

	// GetSchema returns the registered schema or ErrNotFound.
	GetSchema(ctx context.Context, uid UID) (*SchemaRecord, error)
}

// AttestationService creates and fetches on-chain attestations.
type AttestationService interface {
	// Attest submits an attestation transaction.
	Attest(ctx context.Context, request AttestationRequest) (*types.Transaction, error)

	// WaitForUID waits for an attest transaction and returns the attestation UID.
	WaitForUID(ctx context.Context, tx *types.Transaction) (UID, error)

	// GetAttestation returns the attestation or ErrNotFound.
	GetAttestation(ctx context.Context, uid UID) (*Attestation, error)
}

// ResultLog records human-readable results for later inspection.
type ResultLog interface {
	// RecordAttestation appends a line for a newly created attestation.
	RecordAttestation(uid UID) error
}
