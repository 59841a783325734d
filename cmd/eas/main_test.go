package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/offchain"
	"github.com/ruteri/eas-attestation-toolkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const voteSchema = "bytes32 proposalId, bool vote"

// run executes the CLI with args and returns what it printed on stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader("")
	app.ExitErrHandler = func(*cli.Context, error) {}

	envFile := filepath.Join(t.TempDir(), "missing.env")
	err := app.Run(append([]string{"eas", "--env-file", envFile}, args...))
	return out.String(), err
}

func TestEncodeDecode(t *testing.T) {
	encoded, err := run(t, "encode", "--schema", voteSchema, "--values", `{"proposalId": "proposal-1", "vote": true}`)
	require.NoError(t, err)
	encoded = strings.TrimSpace(encoded)
	require.True(t, strings.HasPrefix(encoded, "0x"))

	data, err := hexutil.Decode(encoded)
	require.NoError(t, err)
	assert.Len(t, data, 64)

	decoded, err := run(t, "decode", "--schema", voteSchema, encoded)
	require.NoError(t, err)

	var values []struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Value any    `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(decoded), &values))
	require.Len(t, values, 2)
	assert.Equal(t, "proposalId", values[0].Name)
	assert.True(t, strings.HasPrefix(values[0].Value.(string), hexutil.Encode([]byte("proposal-1"))))
	assert.Equal(t, "vote", values[1].Name)
	assert.Equal(t, true, values[1].Value)
}

func TestEncodeErrors(t *testing.T) {
	_, err := run(t, "encode", "--schema", voteSchema)
	assert.Error(t, err)

	_, err = run(t, "encode", "--schema", voteSchema, "--values", `{"proposalId": "proposal-1", "vote": 1}`)
	assert.ErrorIs(t, err, interfaces.ErrTypeMismatch)

	_, err = run(t, "encode", "--schema", "bytes32", "--values", `{}`)
	assert.ErrorIs(t, err, interfaces.ErrInvalidSchema)

	_, err = run(t, "decode", "--schema", voteSchema, "0x01")
	assert.ErrorIs(t, err, interfaces.ErrMalformedPayload)
}

func TestSchemaUID(t *testing.T) {
	out, err := run(t, "schema-uid")
	require.NoError(t, err)
	assert.Equal(t, schema.UID(defaultSchema, common.Address{}, false).String(), strings.TrimSpace(out))

	resolver := "0x1e3de6aE412cA218FD2ae3379750388D414532dc"
	out, err = run(t, "schema-uid", "--schema", voteSchema, "--resolver", resolver, "--revocable")
	require.NoError(t, err)
	assert.Equal(t, schema.UID(voteSchema, common.HexToAddress(resolver), true).String(), strings.TrimSpace(out))

	_, err = run(t, "schema-uid", "--resolver", "0x1234")
	assert.Error(t, err)
}

func TestHashContent(t *testing.T) {
	content := []byte("Sample Article Title\n\nbody")
	name := filepath.Join(t.TempDir(), "article.md")
	require.NoError(t, os.WriteFile(name, content, 0644))

	out, err := run(t, "hash-content", name)
	require.NoError(t, err)
	assert.Equal(t, "0x"+interfaces.ComputeID(content).String(), strings.TrimSpace(out))
}

func TestHashContentArchive(t *testing.T) {
	content := []byte("archived article")
	name := filepath.Join(t.TempDir(), "article.md")
	require.NoError(t, os.WriteFile(name, content, 0644))

	archiveDir := t.TempDir()
	t.Setenv("ARCHIVE_URIS", "file://"+archiveDir)

	_, err := run(t, "hash-content", "--archive", name)
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(archiveDir, interfaces.ArticleType.String(), interfaces.ComputeID(content).String()))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestSignAndVerifyOffline(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Setenv("PRIVATE_KEY", hexutil.Encode(crypto.FromECDSA(key)))
	t.Setenv("RPC_PROVIDER", "")

	document := filepath.Join(t.TempDir(), "attestation.json")
	_, err = run(t, "sign-offchain",
		"--chain-id", "11155111", "--contract-version", "1.3.0",
		"--schema", voteSchema, "--values", `{"proposalId": "proposal-1", "vote": true}`,
		"--time", "1671219636",
		"--output", document)
	require.NoError(t, err)

	raw, err := os.ReadFile(document)
	require.NoError(t, err)
	pkg, err := offchain.ParsePackage(raw)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), pkg.Signer)
	assert.Equal(t, uint16(offchain.Version2), pkg.Sig.Message.Version)
	assert.Equal(t, offchain.Uint64(1671219636), pkg.Sig.Message.Time)
	assert.Equal(t, common.HexToAddress(defaultRecipient), pkg.Sig.Message.Recipient)

	out, err := run(t, "verify-offchain", "--chain-id", "11155111", "--contract-version", "1.3.0", document)
	require.NoError(t, err)

	var result verifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, pkg.Sig.UID, result.UID)

	out, err = run(t, "verify-offchain", "--chain-id", "1", "--contract-version", "1.3.0", document)
	assert.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)
}

func TestSignOffchainRequiresKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")

	_, err := run(t, "sign-offchain", "--chain-id", "1", "--contract-version", "1.3.0",
		"--schema", voteSchema, "--values", `{"proposalId": "p", "vote": false}`)
	assert.ErrorIs(t, err, interfaces.ErrConfigurationMissing)
}

func TestOnchainCommandsRequireRPC(t *testing.T) {
	t.Setenv("RPC_PROVIDER", "")
	t.Setenv("PRIVATE_KEY", "")

	_, err := run(t, "fetch-schema", "--uid", defaultSchemaUID)
	assert.ErrorIs(t, err, interfaces.ErrConfigurationMissing)

	_, err = run(t, "attest", "--values", `{"citationUID": [], "authorName": "Author Name", "articleTitle": "Sample Article Title", "articleHash": "0x`+interfaces.ComputeID([]byte("x")).String()+`", "urlOfContent": "https://example.com/article"}`)
	assert.ErrorIs(t, err, interfaces.ErrConfigurationMissing)
}
