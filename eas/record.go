package eas

import (
	"context"

	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// AttestAndRecord submits request, waits for the attestation UID and appends
// it to resultLog. The UID is returned even if recording fails.
func AttestAndRecord(ctx context.Context, service interfaces.AttestationService, resultLog interfaces.ResultLog, request interfaces.AttestationRequest) (interfaces.UID, error) {
	tx, err := service.Attest(ctx, request)
	if err != nil {
		return interfaces.UID{}, err
	}

	uid, err := service.WaitForUID(ctx, tx)
	if err != nil {
		return interfaces.UID{}, err
	}

	if resultLog != nil {
		if err := resultLog.RecordAttestation(uid); err != nil {
			return uid, err
		}
	}
	return uid, nil
}
