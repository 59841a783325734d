package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/offchain"
	"github.com/ruteri/eas-attestation-toolkit/schema"
)

// maxBodySize is the maximum accepted request body (1MB).
const maxBodySize = 1024 * 1024

// Observer receives lookup and verification outcomes. *metrics.MetricsServer
// implements it.
type Observer interface {
	ObserveLookup(kind, result string)
	ObserveVerification(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string) {}
func (nopObserver) ObserveVerification(string)   {}

// RequestError carries the HTTP status to answer with.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Handler serves read-only views of schemas and attestations, verifies
// off-chain attestations and serves archived off-chain documents.
type Handler struct {
	registry     interfaces.SchemaRegistry
	attestations interfaces.AttestationService
	verifier     *offchain.Offchain
	archive      interfaces.StorageBackend
	observer     Observer
	log          *slog.Logger
}

// NewHandler creates a handler. archive may be nil, in which case the
// archive endpoint answers 503 and verified documents are not stored.
func NewHandler(registry interfaces.SchemaRegistry, attestations interfaces.AttestationService, verifier *offchain.Offchain, archive interfaces.StorageBackend, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		registry:     registry,
		attestations: attestations,
		verifier:     verifier,
		archive:      archive,
		observer:     nopObserver{},
		log:          log,
	}
}

// SetObserver installs the metrics sink.
func (h *Handler) SetObserver(observer Observer) {
	if observer == nil {
		observer = nopObserver{}
	}
	h.observer = observer
}

type FieldResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type SchemaResponse struct {
	UID       interfaces.UID  `json:"uid"`
	Schema    string          `json:"schema"`
	Resolver  common.Address  `json:"resolver"`
	Revocable bool            `json:"revocable"`
	Fields    []FieldResponse `json:"fields,omitempty"`
}

type AttestationResponse struct {
	UID            interfaces.UID `json:"uid"`
	Schema         interfaces.UID `json:"schema"`
	Time           uint64         `json:"time"`
	ExpirationTime uint64         `json:"expirationTime"`
	RevocationTime uint64         `json:"revocationTime"`
	RefUID         interfaces.UID `json:"refUID"`
	Recipient      common.Address `json:"recipient"`
	Attester       common.Address `json:"attester"`
	Revocable      bool           `json:"revocable"`
	Data           hexutil.Bytes  `json:"data"`
	// Decoded is empty when the schema cannot be fetched or the data does
	// not match it.
	Decoded []schema.Value `json:"decoded,omitempty"`
}

type VerifyResponse struct {
	Valid     bool           `json:"valid"`
	UID       interfaces.UID `json:"uid"`
	Signer    common.Address `json:"signer"`
	ContentID string         `json:"contentId,omitempty"`
}

// HandleGetSchema returns a registered schema with its parsed fields.
//
// URL format: GET /api/schemas/{uid}
func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	uid, err := interfaces.NewUIDFromHex(chi.URLParam(r, "uid"))
	if err != nil {
		h.writeError(w, &RequestError{http.StatusBadRequest, fmt.Errorf("invalid schema uid: %w", err)})
		return
	}

	record, err := h.registry.GetSchema(r.Context(), uid)
	if err != nil {
		h.observer.ObserveLookup("schema", lookupResult(err))
		h.writeError(w, err)
		return
	}
	h.observer.ObserveLookup("schema", "found")

	response := SchemaResponse{
		UID:       record.UID,
		Schema:    record.Schema,
		Resolver:  record.Resolver,
		Revocable: record.Revocable,
	}
	if parsed, err := schema.Parse(record.Schema); err == nil {
		for _, f := range parsed.Fields() {
			response.Fields = append(response.Fields, FieldResponse{Name: f.Name, Type: f.TypeName})
		}
	} else {
		h.log.Debug("Registered schema is not parseable", slog.String("uid", uid.String()), "err", err)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetAttestation returns an on-chain attestation, with its data
// decoded against the attestation's schema when possible.
//
// URL format: GET /api/attestations/{uid}
func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	uid, err := interfaces.NewUIDFromHex(chi.URLParam(r, "uid"))
	if err != nil {
		h.writeError(w, &RequestError{http.StatusBadRequest, fmt.Errorf("invalid attestation uid: %w", err)})
		return
	}

	att, err := h.attestations.GetAttestation(r.Context(), uid)
	if err != nil {
		h.observer.ObserveLookup("attestation", lookupResult(err))
		h.writeError(w, err)
		return
	}
	h.observer.ObserveLookup("attestation", "found")

	response := AttestationResponse{
		UID:            att.UID,
		Schema:         att.Schema,
		Time:           att.Time,
		ExpirationTime: att.ExpirationTime,
		RevocationTime: att.RevocationTime,
		RefUID:         att.RefUID,
		Recipient:      att.Recipient,
		Attester:       att.Attester,
		Revocable:      att.Revocable,
		Data:           att.Data,
	}
	if decoded, err := h.decode(r, att); err != nil {
		h.log.Debug("Attestation data not decoded", slog.String("uid", uid.String()), "err", err)
	} else {
		response.Decoded = decoded
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) decode(r *http.Request, att *interfaces.Attestation) ([]schema.Value, error) {
	record, err := h.registry.GetSchema(r.Context(), att.Schema)
	if err != nil {
		return nil, err
	}
	parsed, err := schema.Parse(record.Schema)
	if err != nil {
		return nil, err
	}
	return parsed.Decode(att.Data)
}

// HandleVerifyOffchain verifies a shareable package, or a bare signed
// attestation, against the configured deployment. Valid documents are
// archived when an archive is configured.
//
// URL format: POST /api/offchain/verify
func (h *Handler) HandleVerifyOffchain(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		h.writeError(w, &RequestError{http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)})
		return
	}
	if len(body) > maxBodySize {
		h.writeError(w, &RequestError{http.StatusRequestEntityTooLarge, errors.New("request body too large")})
		return
	}

	pkg, err := offchain.ParsePackage(body)
	if err != nil {
		h.observer.ObserveVerification("malformed")
		h.writeError(w, err)
		return
	}

	valid, err := h.verifier.VerifyPackage(pkg)
	if err != nil {
		h.observer.ObserveVerification("malformed")
		h.writeError(w, err)
		return
	}

	response := VerifyResponse{Valid: valid, UID: pkg.Sig.UID, Signer: pkg.Signer}
	if !valid {
		h.observer.ObserveVerification("invalid")
		h.writeJSON(w, http.StatusOK, response)
		return
	}
	h.observer.ObserveVerification("valid")

	if h.archive != nil {
		document, err := json.Marshal(pkg)
		if err != nil {
			h.writeError(w, err)
			return
		}
		contentID, err := h.archive.Store(r.Context(), document, interfaces.OffchainAttestationType)
		if err != nil {
			h.log.Warn("Failed to archive off-chain attestation", slog.String("uid", pkg.Sig.UID.String()), "err", err)
		} else {
			response.ContentID = contentID.String()
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetArchived returns an archived off-chain attestation document.
//
// URL format: GET /api/offchain/{content_id}
func (h *Handler) HandleGetArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeError(w, &RequestError{http.StatusServiceUnavailable, errors.New("no archive configured")})
		return
	}

	contentID, err := interfaces.NewContentIDFromHex(chi.URLParam(r, "content_id"))
	if err != nil {
		h.writeError(w, &RequestError{http.StatusBadRequest, fmt.Errorf("invalid content id: %w", err)})
		return
	}

	document, err := h.archive.Fetch(r.Context(), contentID, interfaces.OffchainAttestationType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func lookupResult(err error) string {
	if errors.Is(err, interfaces.ErrNotFound) {
		return "not_found"
	}
	return "error"
}

// statusFor maps toolkit errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrMalformedSignature), errors.Is(err, interfaces.ErrInvalidSchema):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrConnectionFailure), errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", slog.Int("status", status), "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
