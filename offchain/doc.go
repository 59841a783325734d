// Package offchain signs and verifies EAS off-chain attestations.
//
// An off-chain attestation is an EIP-712 signature over the attestation
// fields, in the "EAS Attestation" domain of a specific contract deployment.
// Three layouts exist: Legacy, Version1 (adds a version field) and Version2
// (adds a random salt). Each layout derives the attestation UID from the
// packed message fields.
//
// Verify returns false for a wrong signer, a tampered message or UID, and a
// document signed for another deployment. It returns an error wrapping
// interfaces.ErrMalformedSignature only when the document cannot be
// interpreted at all.
//
// SignedAttestation and ShareablePackage marshal to the JSON layout used by
// the EAS SDK and explorers.
package offchain
