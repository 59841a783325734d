// Package main (cmd/httpserver) runs the read-only attestation gateway.
//
// The gateway serves schema and attestation lookups from the configured EAS
// deployment, verifies off-chain attestation documents and, when ARCHIVE_URIS
// is set, archives verified documents and serves them back by content id.
//
// Liveness, readiness and drain endpoints follow the usual layout; Prometheus
// metrics are exposed on --metrics-addr.
//
// Example:
//
//	RPC_PROVIDER=https://sepolia.example.org ARCHIVE_URIS=file:///var/lib/eas \
//	    eas-gateway --listen-addr=0.0.0.0:8080
package main
