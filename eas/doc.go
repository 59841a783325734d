// Package eas creates and reads attestations on an Ethereum Attestation
// Service contract.
//
// Client wraps the contract binding over a chain.Connection. Attest returns
// the submitted transaction; WaitForUID waits for it to be mined and reads
// the UID from the Attested event. GetAttestation reports unknown UIDs as
// interfaces.ErrNotFound, since the contract answers them with an empty
// record.
//
// Offchain returns an offchain.Offchain configured for the deployment, so
// off-chain attestations are signed against the same EIP-712 domain that the
// contract would verify them with.
//
// MockEAS is an in-memory implementation with the contract's validation
// rules, for tests and for running the gateway without a chain.
package eas
