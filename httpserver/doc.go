/*
Package httpserver implements the attestation gateway: a read-only HTTP view
of an EAS deployment plus an off-chain attestation verifier.

# API

	GET  /api/schemas/{uid}          registered schema with its parsed fields
	GET  /api/attestations/{uid}     on-chain attestation, data decoded against its schema
	POST /api/offchain/verify        verify a shareable package or bare signed attestation
	GET  /api/offchain/{content_id}  archived off-chain attestation document

Verification answers {"valid": false} for a wrong signer, a tampered document
or a document signed for another deployment, and 400 only for documents that
cannot be interpreted. Valid documents are archived when a storage backend is
configured and the response carries the archive content id.

Unknown schemas, attestations and content ids answer 404.

# Operations

	GET /livez    liveness
	GET /readyz   readiness, 503 while draining
	GET /drain    stop reporting ready
	GET /undrain  report ready again

Prometheus metrics are served on a separate address, see package metrics.
*/
package httpserver
