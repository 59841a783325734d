package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/eas-attestation-toolkit/eas"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/offchain"
	"github.com/ruteri/eas-attestation-toolkit/registry"
	"github.com/ruteri/eas-attestation-toolkit/schema"
	"github.com/ruteri/eas-attestation-toolkit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const articleSchema = "bytes32[] citationUID, bytes32 authorName, bytes32 articleTitle, bytes32 articleHash, bytes32 urlOfContent"

var sepoliaConfig = offchain.Config{
	Address: common.HexToAddress("0xC2679fBD37d54388Ce493F1DB75320D236e1815e"),
	Version: "1.3.0",
	ChainID: big.NewInt(11155111),
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(h *Handler) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/api/schemas/{uid}", h.HandleGetSchema)
	mux.Get("/api/attestations/{uid}", h.HandleGetAttestation)
	mux.Post("/api/offchain/verify", h.HandleVerifyOffchain)
	mux.Get("/api/offchain/{content_id}", h.HandleGetArchived)
	return mux
}

func serve(t *testing.T, handler http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func TestHandleGetSchema(t *testing.T) {
	uid := schema.UID(articleSchema, common.Address{}, false)

	mockRegistry := new(registry.MockRegistry)
	mockRegistry.On("GetSchema", mock.Anything, uid).Return(&interfaces.SchemaRecord{
		UID:    uid,
		Schema: articleSchema,
	}, nil)
	mockRegistry.On("GetSchema", mock.Anything, interfaces.UID{0x01}).Return(nil, interfaces.ErrNotFound)
	mockRegistry.On("GetSchema", mock.Anything, interfaces.UID{0x02}).Return(nil, interfaces.ErrConnectionFailure)

	router := newRouter(NewHandler(mockRegistry, nil, nil, nil, testLogger()))

	w := serve(t, router, http.MethodGet, "/api/schemas/"+uid.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response SchemaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uid, response.UID)
	assert.Equal(t, articleSchema, response.Schema)
	assert.False(t, response.Revocable)
	require.Len(t, response.Fields, 5)
	assert.Equal(t, FieldResponse{Name: "citationUID", Type: "bytes32[]"}, response.Fields[0])
	assert.Equal(t, FieldResponse{Name: "urlOfContent", Type: "bytes32"}, response.Fields[4])

	w = serve(t, router, http.MethodGet, "/api/schemas/"+interfaces.UID{0x01}.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/api/schemas/"+interfaces.UID{0x02}.String(), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = serve(t, router, http.MethodGet, "/api/schemas/0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockRegistry.AssertExpectations(t)
}

func TestHandleGetAttestation(t *testing.T) {
	ctx := context.Background()

	schemas := registry.NewMockSchemaRegistry()
	schemas.SetTransactOpts()
	schemaUID, err := schemas.RegisterAndWait(ctx, articleSchema, common.Address{}, false)
	require.NoError(t, err)

	attester := common.HexToAddress("0x1e3de6aE412cA218FD2ae3379750388D414532dc")
	attestations := eas.NewMockEAS(schemas, attester)
	attestations.SetTransactOpts()

	payload, err := schema.MustParse(articleSchema).EncodeMap(map[string]any{
		"citationUID":  []string{},
		"authorName":   "Alice",
		"articleTitle": "Citation graphs",
		"articleHash":  interfaces.ComputeID([]byte("article")).Bytes(),
		"urlOfContent": "https://example.org/articles/1",
	})
	require.NoError(t, err)

	uid, err := eas.AttestAndRecord(ctx, attestations, nil, interfaces.AttestationRequest{
		Schema:    schemaUID,
		Recipient: common.HexToAddress("0xdd74500Da50db8B5A120310A00443C55b8Df3F10"),
		Data:      payload,
	})
	require.NoError(t, err)

	router := newRouter(NewHandler(schemas, attestations, nil, nil, testLogger()))

	w := serve(t, router, http.MethodGet, "/api/attestations/"+uid.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		UID      interfaces.UID `json:"uid"`
		Schema   interfaces.UID `json:"schema"`
		Attester common.Address `json:"attester"`
		Data     string         `json:"data"`
		Decoded  []struct {
			Name  string `json:"name"`
			Type  string `json:"type"`
			Value any    `json:"value"`
		} `json:"decoded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uid, response.UID)
	assert.Equal(t, schemaUID, response.Schema)
	assert.Equal(t, attester, response.Attester)
	assert.True(t, strings.HasPrefix(response.Data, "0x"))
	require.Len(t, response.Decoded, 5)
	assert.Equal(t, "authorName", response.Decoded[1].Name)
	assert.Equal(t, "0x416c696365000000000000000000000000000000000000000000000000000000", response.Decoded[1].Value)
	assert.Equal(t, []any{}, response.Decoded[0].Value)

	w = serve(t, router, http.MethodGet, "/api/attestations/"+interfaces.UID{0x09}.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/api/attestations/not-a-uid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func signedPackage(t *testing.T) (*offchain.ShareablePackage, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	oc, err := offchain.New(sepoliaConfig, offchain.Version2)
	require.NoError(t, err)
	signed, err := oc.Sign(offchain.Message{
		Schema:    schema.UID(articleSchema, common.Address{}, false),
		Recipient: common.HexToAddress("0xFD50b031E778fAb33DfD2Fc3Ca66a1EeF0652165"),
		Time:      1671219600,
		Data:      make([]byte, 32),
	}, key)
	require.NoError(t, err)

	return &offchain.ShareablePackage{Sig: *signed, Signer: signer}, signer
}

func TestHandleVerifyOffchain(t *testing.T) {
	archive, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	verifier, err := offchain.New(sepoliaConfig, offchain.Version2)
	require.NoError(t, err)
	router := newRouter(NewHandler(nil, nil, verifier, archive, testLogger()))

	pkg, signer := signedPackage(t)
	body, err := json.Marshal(pkg)
	require.NoError(t, err)

	w := serve(t, router, http.MethodPost, "/api/offchain/verify", body)
	require.Equal(t, http.StatusOK, w.Code)

	var response VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid)
	assert.Equal(t, pkg.Sig.UID, response.UID)
	assert.Equal(t, signer, response.Signer)
	require.NotEmpty(t, response.ContentID)

	w = serve(t, router, http.MethodGet, "/api/offchain/"+response.ContentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	archived, err := offchain.ParsePackage(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pkg.Sig.UID, archived.Sig.UID)
	assert.Equal(t, signer, archived.Signer)

	t.Run("wrong signer", func(t *testing.T) {
		forged := *pkg
		forged.Signer = common.HexToAddress("0x0000000000000000000000000000000000000001")
		body, err := json.Marshal(&forged)
		require.NoError(t, err)

		w := serve(t, router, http.MethodPost, "/api/offchain/verify", body)
		require.Equal(t, http.StatusOK, w.Code)
		var response VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Valid)
		assert.Empty(t, response.ContentID)
	})

	t.Run("other deployment", func(t *testing.T) {
		other, err := offchain.New(offchain.Config{Address: sepoliaConfig.Address, Version: "1.3.0", ChainID: big.NewInt(1)}, offchain.Version2)
		require.NoError(t, err)
		w := serve(t, newRouter(NewHandler(nil, nil, other, nil, testLogger())), http.MethodPost, "/api/offchain/verify", body)
		require.Equal(t, http.StatusOK, w.Code)
		var response VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Valid)
	})

	t.Run("malformed", func(t *testing.T) {
		broken := *pkg
		broken.Sig.Signature.R = "0x1234"
		body, err := json.Marshal(&broken)
		require.NoError(t, err)

		w := serve(t, router, http.MethodPost, "/api/offchain/verify", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = serve(t, router, http.MethodPost, "/api/offchain/verify", []byte("not json"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetArchived(t *testing.T) {
	archive, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	router := newRouter(NewHandler(nil, nil, nil, archive, testLogger()))

	w := serve(t, router, http.MethodGet, "/api/offchain/"+interfaces.ComputeID([]byte("missing")).String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, router, http.MethodGet, "/api/offchain/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	router = newRouter(NewHandler(nil, nil, nil, nil, testLogger()))
	w = serve(t, router, http.MethodGet, "/api/offchain/"+interfaces.ComputeID([]byte("missing")).String(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: interfaces.ErrNotFound, status: http.StatusNotFound},
		{err: interfaces.ErrContentNotFound, status: http.StatusNotFound},
		{err: interfaces.ErrMalformedSignature, status: http.StatusBadRequest},
		{err: interfaces.ErrConnectionFailure, status: http.StatusBadGateway},
		{err: &RequestError{http.StatusTeapot, errors.New("teapot")}, status: http.StatusTeapot},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}
