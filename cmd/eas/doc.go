// Package main (cmd/eas) is the command line client for the Ethereum
// Attestation Service.
//
// Settings are read from the environment, an optional .env file (--env-file)
// and an optional YAML file (--config):
//
//	PRIVATE_KEY              signing key, required by register-schema, attest and sign-offchain
//	RPC_PROVIDER             JSON-RPC endpoint
//	EAS_ADDRESS              defaults to the Sepolia deployment
//	SCHEMA_REGISTRY_ADDRESS  defaults to the Sepolia deployment
//	RESULT_LOG               file attest appends "New Attestation UID: 0x..." lines to
//	ARCHIVE_URIS             comma separated storage URIs used by --archive
//	CONFIRMATION_TIMEOUT     bound on every command, default 5m
//
// Typical flow for publishing an article:
//
//	eas register-schema
//	eas hash-content --archive article.md
//	eas attest --values-file article.json
//	eas get-attestation --uid 0x...
//
// Off-chain attestations can be signed and verified without a node by
// passing --chain-id and --contract-version:
//
//	eas sign-offchain --chain-id 11155111 --contract-version 1.3.0 --values-file article.json --output att.json
//	eas verify-offchain --chain-id 11155111 --contract-version 1.3.0 att.json
package main
