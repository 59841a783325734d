package storage

import (
	"fmt"
	"path"

	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// objectKey is the backend-independent location of a content item:
// "<content type>/<hex content id>".
func objectKey(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(contentType.String(), id.String())
}

// verifyContent rejects data whose hash does not match the requested id, so
// a corrupted or substituted object is never returned as the original.
func verifyContent(id interfaces.ContentID, data []byte) error {
	if actual := interfaces.ComputeID(data); !actual.Equal(id) {
		return fmt.Errorf("content hash mismatch: expected %s, got %s", id.String(), actual.String())
	}
	return nil
}
