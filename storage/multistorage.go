package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend on top of several
// backends. Writes go to every available backend, reads fall back in order.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the content from the first available backend that has it.
// ErrContentNotFound is returned only if every consulted backend reported
// the content as missing, ErrBackendUnavailable if none could be consulted.
// Any other failure is returned joined, without the not-found reports.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error
	var missing, unavailable int

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend", backend.Name()))
			unavailable++
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend", backend.Name()),
				slog.String("contentID", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		m.log.Debug("Failed to fetch from backend",
			slog.String("backend", backend.Name()),
			slog.String("contentID", id.String()),
			"err", err)
		if errors.Is(err, interfaces.ErrContentNotFound) {
			missing++
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
	}

	switch {
	case len(errs) > 0:
		m.log.Error("Backends failed to fetch content",
			slog.String("contentID", id.String()),
			slog.Int("failedBackends", len(errs)),
			slog.Int("missing", missing))
		return nil, fmt.Errorf("fetching %s: %w", id.String(), errors.Join(errs...))
	case missing > 0 && unavailable > 0:
		return nil, fmt.Errorf("%w (%d backends unavailable)", interfaces.ErrContentNotFound, unavailable)
	case missing > 0:
		return nil, interfaces.ErrContentNotFound
	default:
		return nil, interfaces.ErrBackendUnavailable
	}
}

// Store saves data to all available backends and succeeds if at least one
// accepted it.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	var stored int
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend", backend.Name()))
			continue
		}

		backendID, err := backend.Store(ctx, data, contentType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend", backend.Name()),
				"err", err)
			continue
		}
		if backendID != id {
			m.log.Warn("Backend returned unexpected content id",
				slog.String("backend", backend.Name()),
				slog.String("expected", id.String()),
				slog.String("actual", backendID.String()))
		}
		stored++
	}

	if stored == 0 {
		if len(errs) == 0 {
			return id, interfaces.ErrBackendUnavailable
		}
		return id, fmt.Errorf("all backends failed to store data: %w", errors.Join(errs...))
	}

	m.log.Info("Archived content",
		slog.String("contentID", id.String()),
		slog.String("contentType", contentType.String()),
		slog.Int("backends", stored))
	return id, nil
}

// Available reports whether any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
