package storage

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// FileResultLog appends one line per created attestation to a plain text
// file, in the format "New Attestation UID: 0x...".
type FileResultLog struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

func NewFileResultLog(path string, log *slog.Logger) *FileResultLog {
	if log == nil {
		log = slog.Default()
	}
	return &FileResultLog{path: path, log: log}
}

// RecordAttestation appends the line for uid, creating the file if needed.
func (l *FileResultLog) RecordAttestation(uid interfaces.UID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open result log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "New Attestation UID: %s\n", uid.String()); err != nil {
		return fmt.Errorf("failed to write result log: %w", err)
	}

	l.log.Debug("Recorded attestation", slog.String("path", l.path), slog.String("uid", uid.String()))
	return nil
}

func (l *FileResultLog) Path() string {
	return l.path
}
