// Package interfaces defines the core interfaces and types for the attestation toolkit.
//
// This package provides the contracts between the components of the toolkit
// without including implementation details, so that the CLIs and the gateway
// server can run against the on-chain clients or the in-memory mocks.
//
// # Attestation Interfaces
//
//   - SchemaRegistry: registers schemas and fetches schema records
//   - AttestationService: submits on-chain attestations and fetches them
//   - ResultLog: records newly created attestation UIDs
//
// # Storage Interfaces
//
//   - StorageBackend: content-addressed storage for articles and signed off-chain attestations
//   - StorageBackendFactory: creates storage backends from URI strings
//
// # Type Definitions
//
//   - UID: 32-byte schema or attestation identifier
//   - SchemaRecord, Attestation, AttestationRequest: contract records
//   - ContentID: SHA-256 hash addressing archived content
//   - ContentType: ArticleType or OffchainAttestationType
//
// # Error Types
//
// Errors are sentinels wrapped with fmt.Errorf("%w: ...") by the producing
// package; callers match them with errors.Is:
//
//   - ErrConfigurationMissing: PRIVATE_KEY or RPC_PROVIDER absent
//   - ErrConnectionFailure: provider unreachable
//   - ErrTransactionReverted: contract-level rejection
//   - ErrInsufficientFunds: signer cannot pay for gas
//   - ErrNotFound: schema or attestation does not exist
//   - ErrTypeMismatch: value does not fit its schema field type
//   - ErrMalformedPayload: encoded data does not match the schema
//   - ErrMalformedSignature: off-chain signature components missing or invalid
//   - ErrContentNotFound, ErrBackendUnavailable, ErrInvalidLocationURI: storage errors
package interfaces
