package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eas-attestation-toolkit/bindings/schemaregistry"
	"github.com/ruteri/eas-attestation-toolkit/chain/chaintest"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleSchema = "bytes32[] citationUID, bytes32 authorName, bytes32 articleTitle, bytes32 articleHash, bytes32 urlOfContent"

// The codec rejects tuples but the registry stores them.
const tupleSchema = "(uint256 amount, address token) payment, bool settled"

func TestMockSchemaRegistry_RegisterAndFetch(t *testing.T) {
	ctx := context.Background()
	registry := NewMockSchemaRegistry()

	_, err := registry.Register(ctx, articleSchema, common.Address{}, false)
	assert.ErrorIs(t, err, interfaces.ErrNoTransactOpts)

	registry.SetTransactOpts()

	uid, err := registry.RegisterAndWait(ctx, articleSchema, common.Address{}, false)
	require.NoError(t, err)
	assert.Equal(t, "0x0fcfaf1c07cd7f659bfb352c7032d20708707b781cac580fe42eb520a645f35f", uid.String())

	record, err := registry.GetSchema(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, articleSchema, record.Schema)
	assert.Equal(t, uid, record.UID)
	assert.False(t, record.Revocable)
	assert.Equal(t, common.Address{}, record.Resolver)

	// same schema with a different revocability is a different registration
	revocableUID, err := registry.RegisterAndWait(ctx, articleSchema, common.Address{}, true)
	require.NoError(t, err)
	assert.NotEqual(t, uid, revocableUID)

	_, err = registry.Register(ctx, articleSchema, common.Address{}, false)
	assert.ErrorIs(t, err, interfaces.ErrTransactionReverted)

	_, err = registry.GetSchema(ctx, interfaces.UID{0x01})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

}

func TestMockSchemaRegistry_RegisterTuple(t *testing.T) {
	ctx := context.Background()
	registry := NewMockSchemaRegistry()
	registry.SetTransactOpts()

	_, err := schema.Parse(tupleSchema)
	require.ErrorIs(t, err, interfaces.ErrInvalidSchema)

	uid, err := registry.RegisterAndWait(ctx, tupleSchema, common.Address{}, true)
	require.NoError(t, err)
	assert.Equal(t, schema.UID(tupleSchema, common.Address{}, true), uid)

	record, err := registry.GetSchema(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, tupleSchema, record.Schema)
	assert.True(t, record.Revocable)
}

func TestSchemaRegistryClient_RegisterOnChain(t *testing.T) {
	backend, conn, _, err := chaintest.SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	expectedUID := schema.UID(articleSchema, common.Address{}, true)
	contractAddr, err := chaintest.DeployCode(backend, conn, chaintest.LegacyRegisteredEmitter(expectedUID))
	require.NoError(t, err)

	client, err := NewSchemaRegistryClient(conn, contractAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, contractAddr, client.Address())

	ctx := context.Background()
	tx, err := client.Register(ctx, articleSchema, common.Address{}, true)
	require.NoError(t, err)
	backend.Commit()

	uid, err := client.WaitForUID(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, expectedUID, uid)

	// tuple definitions are submitted unchanged
	tx, err = client.Register(ctx, tupleSchema, common.Address{}, true)
	require.NoError(t, err)
	backend.Commit()
	_, err = client.WaitForUID(ctx, tx)
	require.NoError(t, err)
}

func TestSchemaRegistryClient_RegisterReverted(t *testing.T) {
	backend, conn, _, err := chaintest.SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	contractAddr, err := chaintest.DeployCode(backend, conn, chaintest.Reverter())
	require.NoError(t, err)

	client, err := NewSchemaRegistryClient(conn, contractAddr, nil)
	require.NoError(t, err)

	_, err = client.Register(context.Background(), articleSchema, common.Address{}, false)
	assert.ErrorIs(t, err, interfaces.ErrTransactionReverted)
}

func TestSchemaRegistryClient_GetSchema(t *testing.T) {
	backend, conn, _, err := chaintest.SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	parsed, err := schemaregistry.SchemaRegistryMetaData.GetAbi()
	require.NoError(t, err)

	uid := schema.UID(articleSchema, common.Address{}, false)
	found, err := parsed.Methods["getSchema"].Outputs.Pack(schemaregistry.SchemaRecord{
		Uid:       uid,
		Resolver:  common.Address{},
		Revocable: false,
		Schema:    articleSchema,
	})
	require.NoError(t, err)
	notFound, err := parsed.Methods["getSchema"].Outputs.Pack(schemaregistry.SchemaRecord{})
	require.NoError(t, err)

	ctx := context.Background()

	foundAddr, err := chaintest.DeployCode(backend, conn, chaintest.Returner(found))
	require.NoError(t, err)
	client, err := NewSchemaRegistryClient(conn, foundAddr, nil)
	require.NoError(t, err)

	record, err := client.GetSchema(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, uid, record.UID)
	assert.Equal(t, articleSchema, record.Schema)
	assert.False(t, record.Revocable)

	notFoundAddr, err := chaintest.DeployCode(backend, conn, chaintest.Returner(notFound))
	require.NoError(t, err)
	client, err = NewSchemaRegistryClient(conn, notFoundAddr, nil)
	require.NoError(t, err)

	_, err = client.GetSchema(ctx, uid)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
