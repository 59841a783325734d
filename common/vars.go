package common

var (
	Version = "dev"

	PackageName = "eas-attestation-toolkit"
)
