package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockArchive struct {
	mock.Mock
	name string
}

func (m *mockArchive) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockArchive) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *mockArchive) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockArchive) Name() string {
	return m.name
}

func (m *mockArchive) LocationURI() string {
	return "mock://" + m.name
}

// archiveBehavior describes one backend of a multi-backend under test. A
// backend that is not available is never asked to fetch or store.
type archiveBehavior struct {
	available bool
	data      []byte
	err       error
}

var (
	attestationDoc = []byte(`{"sig": {}, "signer": "0x0000000000000000000000000000000000000000"}`)
	attestationID  = interfaces.ComputeID(attestationDoc)
	errTimeout     = errors.New("i/o timeout")
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newArchives builds mocks for behaviors. onCall registers the expected
// Fetch or Store call of an available backend.
func newArchives(behaviors []archiveBehavior, onCall func(*mockArchive, archiveBehavior)) ([]interfaces.StorageBackend, []*mockArchive) {
	backends := make([]interfaces.StorageBackend, len(behaviors))
	mocks := make([]*mockArchive, len(behaviors))
	for i, b := range behaviors {
		m := &mockArchive{name: string(rune('a' + i))}
		m.On("Available", mock.Anything).Return(b.available).Maybe()
		if b.available && onCall != nil {
			onCall(m, b)
		}
		backends[i] = m
		mocks[i] = m
	}
	return backends, mocks
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := map[string]struct {
		available []bool
		want      bool
	}{
		"empty":            {nil, false},
		"none available":   {[]bool{false, false}, false},
		"last available":   {[]bool{false, false, true}, true},
		"first available":  {[]bool{true, false}, true},
		"single available": {[]bool{true}, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			behaviors := make([]archiveBehavior, len(tt.available))
			for i, available := range tt.available {
				behaviors[i].available = available
			}
			backends, _ := newArchives(behaviors, nil)

			assert.Equal(t, tt.want, NewMultiStorageBackend(backends, quietLogger()).Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	missing := archiveBehavior{available: true, err: interfaces.ErrContentNotFound}
	missingWrapped := archiveBehavior{available: true, err: errors.Join(errTimeout, interfaces.ErrContentNotFound)}
	broken := archiveBehavior{available: true, err: errTimeout}
	holding := archiveBehavior{available: true, data: attestationDoc}
	offline := archiveBehavior{}

	tests := []struct {
		name      string
		behaviors []archiveBehavior
		// number of leading backends that are asked to fetch
		consulted int
		wantData  []byte
		wantErr   error
		// errors that must not be reported
		notErr []error
	}{
		{
			name:      "served by first",
			behaviors: []archiveBehavior{holding, holding},
			consulted: 1,
			wantData:  attestationDoc,
		},
		{
			name:      "falls back past missing and broken",
			behaviors: []archiveBehavior{missing, broken, holding},
			consulted: 3,
			wantData:  attestationDoc,
		},
		{
			name:      "skips offline",
			behaviors: []archiveBehavior{offline, holding},
			consulted: 2,
			wantData:  attestationDoc,
		},
		{
			name:      "missing everywhere",
			behaviors: []archiveBehavior{missing, missingWrapped, missing},
			consulted: 3,
			wantErr:   interfaces.ErrContentNotFound,
			notErr:    []error{interfaces.ErrBackendUnavailable},
		},
		{
			name:      "missing and broken",
			behaviors: []archiveBehavior{missing, broken},
			consulted: 2,
			wantErr:   errTimeout,
			notErr:    []error{interfaces.ErrContentNotFound, interfaces.ErrBackendUnavailable},
		},
		{
			name:      "missing and offline",
			behaviors: []archiveBehavior{offline, missing},
			consulted: 2,
			wantErr:   interfaces.ErrContentNotFound,
			notErr:    []error{interfaces.ErrBackendUnavailable},
		},
		{
			name:      "broken and offline",
			behaviors: []archiveBehavior{broken, offline},
			consulted: 2,
			wantErr:   errTimeout,
			notErr:    []error{interfaces.ErrContentNotFound},
		},
		{
			name:      "all offline",
			behaviors: []archiveBehavior{offline, offline},
			consulted: 2,
			wantErr:   interfaces.ErrBackendUnavailable,
			notErr:    []error{interfaces.ErrContentNotFound},
		},
		{
			name:    "no backends",
			wantErr: interfaces.ErrBackendUnavailable,
			notErr:  []error{interfaces.ErrContentNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends, mocks := newArchives(tt.behaviors, func(m *mockArchive, b archiveBehavior) {
				var data any
				if b.data != nil {
					data = b.data
				}
				m.On("Fetch", mock.Anything, attestationID, interfaces.OffchainAttestationType).Return(data, b.err).Maybe()
			})

			data, err := NewMultiStorageBackend(backends, quietLogger()).Fetch(context.Background(), attestationID, interfaces.OffchainAttestationType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, data)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantData, data)
			}
			for _, e := range tt.notErr {
				assert.NotErrorIs(t, err, e)
			}

			for i, m := range mocks {
				m.AssertExpectations(t)
				if i >= tt.consulted || !tt.behaviors[i].available {
					m.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
				} else {
					m.AssertCalled(t, "Fetch", mock.Anything, attestationID, interfaces.OffchainAttestationType)
				}
			}
		})
	}
}

func TestMultiStorageBackend_Store(t *testing.T) {
	accepting := archiveBehavior{available: true}
	failing := archiveBehavior{available: true, err: errTimeout}
	offline := archiveBehavior{}

	tests := []struct {
		name      string
		behaviors []archiveBehavior
		wantErr   error
	}{
		{"stored everywhere", []archiveBehavior{accepting, accepting}, nil},
		{"one of two fails", []archiveBehavior{failing, accepting}, nil},
		{"offline skipped", []archiveBehavior{offline, accepting}, nil},
		{"every backend fails", []archiveBehavior{failing, failing}, errTimeout},
		{"nothing online", []archiveBehavior{offline}, interfaces.ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends, mocks := newArchives(tt.behaviors, func(m *mockArchive, b archiveBehavior) {
				id := attestationID
				if b.err != nil {
					id = interfaces.ContentID{}
				}
				m.On("Store", mock.Anything, attestationDoc, interfaces.OffchainAttestationType).Return(id, b.err)
			})

			id, err := NewMultiStorageBackend(backends, quietLogger()).Store(context.Background(), attestationDoc, interfaces.OffchainAttestationType)
			assert.Equal(t, attestationID, id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			for i, m := range mocks {
				m.AssertExpectations(t)
				if !tt.behaviors[i].available {
					m.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
				}
			}
		})
	}
}

func TestMultiStorageBackend_LocationURI(t *testing.T) {
	backends, _ := newArchives([]archiveBehavior{{}, {}}, nil)
	assert.Equal(t, "multi:[mock://a,mock://b]", NewMultiStorageBackend(backends, quietLogger()).LocationURI())
	assert.Equal(t, "multi-storage", NewMultiStorageBackend(nil, nil).Name())
}
