package eas

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// MockEAS is an in-memory implementation of the
// interfaces.AttestationService interface that enforces the contract's
// checks: the schema must be registered, a revocable attestation needs a
// revocable schema, the expiration time must lie in the future and a
// reference must exist.
type MockEAS struct {
	mutex            sync.RWMutex
	registry         interfaces.SchemaRegistry
	attester         common.Address
	now              func() time.Time
	attestations     map[interfaces.UID]interfaces.Attestation
	pending          map[common.Hash]interfaces.UID
	nonce            uint64
	allowTransacting bool
}

// NewMockEAS creates an empty attestation service backed by registry.
// Attestations are made on behalf of attester.
func NewMockEAS(registry interfaces.SchemaRegistry, attester common.Address) *MockEAS {
	return &MockEAS{
		registry:     registry,
		attester:     attester,
		now:          time.Now,
		attestations: make(map[interfaces.UID]interfaces.Attestation),
		pending:      make(map[common.Hash]interfaces.UID),
	}
}

// SetTransactOpts enables attestations on the mock.
func (m *MockEAS) SetTransactOpts() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.allowTransacting = true
}

// SetClock replaces the time source used for attestation timestamps.
func (m *MockEAS) SetClock(now func() time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = now
}

func reverted(reason string) error {
	return fmt.Errorf("%w: %s", interfaces.ErrTransactionReverted, reason)
}

// Attest validates and stores the attestation, returning a placeholder
// transaction. Violations are reported as ErrTransactionReverted with the
// contract's error name.
func (m *MockEAS) Attest(ctx context.Context, request interfaces.AttestationRequest) (*types.Transaction, error) {
	record, err := m.registry.GetSchema(ctx, request.Schema)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, reverted("InvalidSchema()")
	}
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.allowTransacting {
		return nil, interfaces.ErrNoTransactOpts
	}

	now := uint64(m.now().Unix())

	if request.Revocable && !record.Revocable {
		return nil, reverted("Irrevocable()")
	}
	if request.ExpirationTime != 0 && request.ExpirationTime <= now {
		return nil, reverted("InvalidExpirationTime()")
	}
	if !request.RefUID.IsZero() {
		if _, ok := m.attestations[request.RefUID]; !ok {
			return nil, reverted("NotFound()")
		}
	}
	if request.Value != nil && request.Value.Sign() != 0 {
		return nil, reverted("NotPayable()")
	}

	att := interfaces.Attestation{
		Schema:         request.Schema,
		Time:           now,
		ExpirationTime: request.ExpirationTime,
		RefUID:         request.RefUID,
		Recipient:      request.Recipient,
		Attester:       m.attester,
		Revocable:      request.Revocable,
		Data:           append([]byte{}, request.Data...),
	}
	for bump := uint32(0); ; bump++ {
		att.UID = attestationUID(&att, bump)
		if _, exists := m.attestations[att.UID]; !exists {
			break
		}
	}
	m.attestations[att.UID] = att

	m.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: m.nonce, Data: att.UID.Bytes()})
	m.pending[tx.Hash()] = att.UID
	return tx, nil
}

// attestationUID mirrors the contract's UID derivation: keccak256 of the
// packed attestation fields followed by a collision counter.
func attestationUID(att *interfaces.Attestation, bump uint32) interfaces.UID {
	packed := make([]byte, 0, 160+len(att.Data))
	packed = append(packed, att.Schema.Bytes()...)
	packed = append(packed, att.Recipient.Bytes()...)
	packed = append(packed, att.Attester.Bytes()...)
	packed = binary.BigEndian.AppendUint64(packed, att.Time)
	packed = binary.BigEndian.AppendUint64(packed, att.ExpirationTime)
	if att.Revocable {
		packed = append(packed, 1)
	} else {
		packed = append(packed, 0)
	}
	packed = append(packed, att.RefUID.Bytes()...)
	packed = append(packed, att.Data...)
	packed = binary.BigEndian.AppendUint32(packed, bump)
	return interfaces.UID(crypto.Keccak256Hash(packed))
}

// WaitForUID returns the UID created by tx.
func (m *MockEAS) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	uid, ok := m.pending[tx.Hash()]
	if !ok {
		return interfaces.UID{}, fmt.Errorf("%w: unknown transaction %s", interfaces.ErrNotFound, tx.Hash().Hex())
	}
	return uid, nil
}

// GetAttestation returns a stored attestation or ErrNotFound.
func (m *MockEAS) GetAttestation(ctx context.Context, uid interfaces.UID) (*interfaces.Attestation, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	att, ok := m.attestations[uid]
	if !ok {
		return nil, fmt.Errorf("%w: attestation %s", interfaces.ErrNotFound, uid.String())
	}
	return &att, nil
}

// IsAttestationValid reports whether uid refers to a stored attestation.
func (m *MockEAS) IsAttestationValid(ctx context.Context, uid interfaces.UID) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, ok := m.attestations[uid]
	return ok, nil
}
