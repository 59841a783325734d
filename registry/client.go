package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/eas-attestation-toolkit/bindings/schemaregistry"
	"github.com/ruteri/eas-attestation-toolkit/chain"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/schema"
)

// SchemaRegistryClient implements the interfaces.SchemaRegistry interface for
// a SchemaRegistry contract deployed on chain.
type SchemaRegistryClient struct {
	contract *schemaregistry.SchemaRegistry
	conn     *chain.Connection
	address  common.Address
	auth     *bind.TransactOpts
	log      *slog.Logger
}

// NewSchemaRegistryClient creates a client for the SchemaRegistry contract at
// address. Transactions are signed with the connection's key unless
// SetTransactOpts overrides it.
func NewSchemaRegistryClient(conn *chain.Connection, address common.Address, log *slog.Logger) (*SchemaRegistryClient, error) {
	contract, err := schemaregistry.NewSchemaRegistry(address, conn.Client())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	return &SchemaRegistryClient{
		contract: contract,
		conn:     conn,
		address:  address,
		log:      log.With(slog.String("schemaRegistry", address.Hex())),
	}, nil
}

// SetTransactOpts sets the transaction options used for registrations.
func (c *SchemaRegistryClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

func (c *SchemaRegistryClient) Address() common.Address {
	return c.address
}

func (c *SchemaRegistryClient) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.auth == nil {
		return c.conn.TransactOpts(ctx)
	}
	opts := *c.auth
	opts.Context = ctx
	return &opts, nil
}

// Register submits a registration. The schema string is passed through as
// is, the contract accepts any string including tuple definitions the codec
// cannot encode. The returned transaction still has to be confirmed with
// WaitForUID.
func (c *SchemaRegistryClient) Register(ctx context.Context, schemaString string, resolver common.Address, revocable bool) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := c.contract.Register(opts, schemaString, resolver, revocable)
	if err != nil {
		return nil, chain.ClassifyError(err)
	}

	c.log.Info("Schema registration submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("expectedUID", schema.UID(schemaString, resolver, revocable).String()))
	return tx, nil
}

// WaitForUID waits for a registration transaction and returns the UID from
// its Registered event.
func (c *SchemaRegistryClient) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	receipt, err := c.conn.WaitMined(ctx, tx)
	if err != nil {
		return interfaces.UID{}, err
	}

	for _, log := range receipt.Logs {
		if log.Address != c.address {
			continue
		}
		event, err := c.contract.ParseRegistered(*log)
		if err != nil {
			continue
		}
		uid := interfaces.UID(event.Uid)
		c.log.Info("Schema registered", slog.String("uid", uid.String()))
		return uid, nil
	}

	return interfaces.UID{}, fmt.Errorf("%w: no Registered event in transaction %s", interfaces.ErrNotFound, tx.Hash().Hex())
}

// RegisterAndWait registers a schema and waits for its UID.
func (c *SchemaRegistryClient) RegisterAndWait(ctx context.Context, schemaString string, resolver common.Address, revocable bool) (interfaces.UID, error) {
	tx, err := c.Register(ctx, schemaString, resolver, revocable)
	if err != nil {
		return interfaces.UID{}, err
	}
	return c.WaitForUID(ctx, tx)
}

// GetSchema fetches a schema record. The registry answers unknown UIDs with
// an empty record, reported here as ErrNotFound.
func (c *SchemaRegistryClient) GetSchema(ctx context.Context, uid interfaces.UID) (*interfaces.SchemaRecord, error) {
	opts := &bind.CallOpts{Context: ctx}

	record, err := c.contract.GetSchema(opts, uid)
	if err != nil {
		return nil, chain.ClassifyError(err)
	}

	if record.Uid == [32]byte{} {
		return nil, fmt.Errorf("%w: schema %s", interfaces.ErrNotFound, uid.String())
	}

	return &interfaces.SchemaRecord{
		UID:       interfaces.UID(record.Uid),
		Schema:    record.Schema,
		Resolver:  record.Resolver,
		Revocable: record.Revocable,
	}, nil
}

// Version returns the semantic version reported by the contract.
func (c *SchemaRegistryClient) Version(ctx context.Context) (string, error) {
	version, err := c.contract.Version(&bind.CallOpts{Context: ctx})
	if err != nil {
		return "", chain.ClassifyError(err)
	}
	return version, nil
}
