package eas

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockAttestationService mocks the AttestationService interface
type MockAttestationService struct {
	mock.Mock
}

// Attest mocks the Attest method
func (m *MockAttestationService) Attest(ctx context.Context, request interfaces.AttestationRequest) (*types.Transaction, error) {
	args := m.Called(ctx, request)
	tx, _ := args.Get(0).(*types.Transaction)
	return tx, args.Error(1)
}

// WaitForUID mocks the WaitForUID method
func (m *MockAttestationService) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(interfaces.UID), args.Error(1)
}

// GetAttestation mocks the GetAttestation method
func (m *MockAttestationService) GetAttestation(ctx context.Context, uid interfaces.UID) (*interfaces.Attestation, error) {
	args := m.Called(ctx, uid)
	att, _ := args.Get(0).(*interfaces.Attestation)
	return att, args.Error(1)
}
