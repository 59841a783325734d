package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/schema"
)

// MockSchemaRegistry is an in-memory implementation of the
// interfaces.SchemaRegistry interface with the contract's semantics:
// registrations are keyed by schema UID and cannot be repeated.
type MockSchemaRegistry struct {
	mutex            sync.RWMutex
	schemas          map[interfaces.UID]interfaces.SchemaRecord
	pending          map[common.Hash]interfaces.UID
	nonce            uint64
	allowTransacting bool
}

// NewMockSchemaRegistry creates an empty registry. It starts read-only;
// call SetTransactOpts to enable registrations.
func NewMockSchemaRegistry() *MockSchemaRegistry {
	return &MockSchemaRegistry{
		schemas: make(map[interfaces.UID]interfaces.SchemaRecord),
		pending: make(map[common.Hash]interfaces.UID),
	}
}

// SetTransactOpts enables registrations on the mock.
func (m *MockSchemaRegistry) SetTransactOpts() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.allowTransacting = true
}

// Register stores the schema, unvalidated like the contract does, and
// returns a placeholder transaction. Registering an existing schema fails
// with ErrTransactionReverted.
func (m *MockSchemaRegistry) Register(ctx context.Context, schemaString string, resolver common.Address, revocable bool) (*types.Transaction, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.allowTransacting {
		return nil, interfaces.ErrNoTransactOpts
	}

	uid := schema.UID(schemaString, resolver, revocable)
	if _, exists := m.schemas[uid]; exists {
		return nil, fmt.Errorf("%w: AlreadyExists()", interfaces.ErrTransactionReverted)
	}

	m.schemas[uid] = interfaces.SchemaRecord{
		UID:       uid,
		Schema:    schemaString,
		Resolver:  resolver,
		Revocable: revocable,
	}

	tx := m.newTransaction(uid)
	m.pending[tx.Hash()] = uid
	return tx, nil
}

func (m *MockSchemaRegistry) newTransaction(uid interfaces.UID) *types.Transaction {
	m.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: m.nonce, Data: uid.Bytes()})
}

// WaitForUID returns the UID registered by tx.
func (m *MockSchemaRegistry) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	uid, ok := m.pending[tx.Hash()]
	if !ok {
		return interfaces.UID{}, fmt.Errorf("%w: unknown transaction %s", interfaces.ErrNotFound, tx.Hash().Hex())
	}
	return uid, nil
}

// RegisterAndWait registers a schema and returns its UID.
func (m *MockSchemaRegistry) RegisterAndWait(ctx context.Context, schemaString string, resolver common.Address, revocable bool) (interfaces.UID, error) {
	tx, err := m.Register(ctx, schemaString, resolver, revocable)
	if err != nil {
		return interfaces.UID{}, err
	}
	return m.WaitForUID(ctx, tx)
}

// GetSchema returns a registered schema or ErrNotFound.
func (m *MockSchemaRegistry) GetSchema(ctx context.Context, uid interfaces.UID) (*interfaces.SchemaRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	record, ok := m.schemas[uid]
	if !ok {
		return nil, fmt.Errorf("%w: schema %s", interfaces.ErrNotFound, uid.String())
	}
	return &record, nil
}
