package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the SchemaRegistry interface
type MockRegistry struct {
	mock.Mock
}

// Register mocks the Register method
func (m *MockRegistry) Register(ctx context.Context, schema string, resolver common.Address, revocable bool) (*types.Transaction, error) {
	args := m.Called(ctx, schema, resolver, revocable)
	tx, _ := args.Get(0).(*types.Transaction)
	return tx, args.Error(1)
}

// WaitForUID mocks the WaitForUID method
func (m *MockRegistry) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(interfaces.UID), args.Error(1)
}

// GetSchema mocks the GetSchema method
func (m *MockRegistry) GetSchema(ctx context.Context, uid interfaces.UID) (*interfaces.SchemaRecord, error) {
	args := m.Called(ctx, uid)
	record, _ := args.Get(0).(*interfaces.SchemaRecord)
	return record, args.Error(1)
}
