// Package storage archives the content behind attestations: article bodies
// whose SHA-256 is attested as articleHash, and signed off-chain attestation
// documents. Content is addressed by its SHA-256 content id and every fetch
// checks the hash of the returned bytes.
//
// Backends are created from URIs:
//
//	file:///var/lib/eas/archive
//	s3://bucket/prefix?region=us-west-2&endpoint=http://minio:9000&path_style=true
//	ipfs://localhost:5001/eas?timeout=30s
//	vault://vault.example.com:8200/secret/eas?token_env=VAULT_TOKEN
//
// Objects live under <content type>/<hex content id> within each backend, so
// articles and off-chain attestations never collide. MultiStorageBackend
// writes to every available backend and reads from the first that has the
// content.
//
// FileResultLog is the append-only text log the command line tools write
// newly created attestation UIDs to.
package storage
